package implementations

import "github.com/annel0/blockverse/internal/world/block"

// FluidHandler поведение жидкостей (вода и лава).
// Источник (level=0) заменяем только при прицеливании внутрь блока, течение заменяемо всегда.
type FluidHandler struct{}

func (FluidHandler) OnUse(*block.BlockState, block.BlockAccess, block.UseContext) block.UseResult {
	return block.UsePass
}

func (FluidHandler) CanReplace(state *block.BlockState, ctx block.UseContext) bool {
	level, ok := state.Property("level")
	if !ok || level != "0" {
		return true
	}
	return !ctx.Inside
}
