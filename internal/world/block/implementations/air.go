package implementations

import "github.com/annel0/blockverse/internal/world/block"

// AirHandler поведение воздуха: на его место можно ставить любой блок
type AirHandler struct{}

// OnUse воздух не реагирует на взаимодействие
func (AirHandler) OnUse(*block.BlockState, block.BlockAccess, block.UseContext) block.UseResult {
	return block.UsePass
}

// CanReplace всегда true
func (AirHandler) CanReplace(*block.BlockState, block.UseContext) bool {
	return true
}
