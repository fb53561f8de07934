package implementations

import "github.com/annel0/blockverse/internal/world/block"

// Регистрируем обработчики при импорте пакета
func init() {
	block.RegisterHandler(block.Air, AirHandler{})
	block.RegisterHandler(block.ID("water"), FluidHandler{})
	block.RegisterHandler(block.ID("lava"), FluidHandler{})
	block.RegisterHandler(block.ID("bedrock"), BedrockHandler{})
}
