package block

// BlockAccess доступ обработчиков блоков к миру.
// Реализуется world.World; вызывающий код обязан держать блокировку мира.
type BlockAccess interface {
	// Block возвращает блок в абсолютных координатах; false если позиция пуста или вне мира
	Block(x, y, z int) (Identifier, bool, error)

	// SetBlock ставит блок; nil очищает позицию до воздуха
	SetBlock(x, y, z int, id *Identifier) error
}
