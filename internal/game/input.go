package game

// InputState снапшот ввода за один тик. Захват сырых событий
// устройства внешний: сюда приходит уже агрегированное состояние,
// опрашиваемое один раз на тик.
type InputState struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool

	// TurretX и TurretY приращения прицела за тик, в радианах
	TurretX float64
	TurretY float64

	Fire   bool
	Reload bool
}

// InputProvider источник снапшота ввода
type InputProvider interface {
	Poll() InputState
}
