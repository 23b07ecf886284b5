package actions

import (
	"github.com/thesrcielos/TopCodeBattle/websocket/message"
)

func HandleTimerStart(v *View, _ message.Message) {
	v.Timer.Start()
	v.SendTimer()
}

func HandleTimerPause(v *View, _ message.Message) {
	v.Timer.Pause()
	v.SendTimer()
}

func HandleTimerReset(v *View, _ message.Message) {
	v.Timer.Reset()
	v.SendTimer()
}
