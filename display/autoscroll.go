package display

import "sync/atomic"

// AutoScroll хранит флаг автопрокрутки. Пишет обработчик ввода, читают все.
// В нулевом значении автопрокрутка включена.
type AutoScroll struct {
	paused atomic.Bool
}

// Enabled сообщает, включена ли автопрокрутка.
func (a *AutoScroll) Enabled() bool {
	return !a.paused.Load()
}

// Toggle переключает флаг и возвращает новое значение Enabled.
func (a *AutoScroll) Toggle() bool {
	for {
		paused := a.paused.Load()
		if a.paused.CompareAndSwap(paused, !paused) {
			return paused
		}
	}
}
