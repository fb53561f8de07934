package implementations

import "github.com/annel0/blockverse/internal/world/block"

// BedrockHandler коренная порода: поглощает взаимодействие, чтобы клиент не пытался ставить блоки в нее
type BedrockHandler struct{}

func (BedrockHandler) OnUse(*block.BlockState, block.BlockAccess, block.UseContext) block.UseResult {
	return block.UseConsume
}

func (BedrockHandler) CanReplace(*block.BlockState, block.UseContext) bool {
	return false
}
