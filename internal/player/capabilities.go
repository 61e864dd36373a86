// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

// Capabilities lists which optional interfaces an instance implements.
type Capabilities struct {
	Prepare   bool `json:"prepare"`
	Play      bool `json:"play"`
	Pause     bool `json:"pause"`
	SetMute   bool `json:"setMute"`
	Mute      bool `json:"mute"`
	IsMuted   bool `json:"isMuted"`
	Destroy   bool `json:"destroy"`
	Subscribe bool `json:"on"`
}

// Inspect reports the capabilities of inst. A nil instance has none.
func Inspect(inst Instance) Capabilities {
	if inst == nil {
		return Capabilities{}
	}
	_, prepare := inst.(Preparer)
	_, play := inst.(Player)
	_, pause := inst.(Pauser)
	_, setMute := inst.(MuteSetter)
	_, mute := inst.(Muter)
	_, isMuted := inst.(MuteReporter)
	_, destroy := inst.(Destroyer)
	_, subscribe := inst.(Subscriber)
	return Capabilities{
		Prepare:   prepare,
		Play:      play,
		Pause:     pause,
		SetMute:   setMute,
		Mute:      mute,
		IsMuted:   isMuted,
		Destroy:   destroy,
		Subscribe: subscribe,
	}
}
