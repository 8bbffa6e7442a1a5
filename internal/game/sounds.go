package game

import "math/rand/v2"

// SoundKey names a sound asset. The audio sink resolves it.
type SoundKey string

// Sound keys emitted by the simulation.
const (
	SoundTicking1 SoundKey = "Ticking1"
	SoundTicking2 SoundKey = "Ticking2"
	SoundTicking3 SoundKey = "Ticking3"
	SoundTicking4 SoundKey = "Ticking4"
	SoundTicking5 SoundKey = "Ticking5"
	SoundTicking6 SoundKey = "Ticking6"

	SoundSetting1 SoundKey = "Setting1"
	SoundSetting2 SoundKey = "Setting2"
	SoundSetting3 SoundKey = "Setting3"
	SoundSetting4 SoundKey = "Setting4"
	SoundWinding  SoundKey = "Winding"

	SoundClockDown1 SoundKey = "ClockDown1"
	SoundClockDown2 SoundKey = "ClockDown2"
	SoundClockDown3 SoundKey = "ClockDown3"
	SoundClockDown4 SoundKey = "ClockDown4"

	SoundClockSpawn1 SoundKey = "ClockSpawn1"
	SoundClockSpawn2 SoundKey = "ClockSpawn2"
	SoundClockSpawn3 SoundKey = "ClockSpawn3"
	SoundClockSpawn4 SoundKey = "ClockSpawn4"

	SoundOilDrink SoundKey = "OilDrink"

	SoundStep1 SoundKey = "Step1"
	SoundStep2 SoundKey = "Step2"
	SoundStep3 SoundKey = "Step3"
	SoundStep4 SoundKey = "Step4"

	SoundtrackMenu     SoundKey = "Menu"
	SoundtrackGameplay SoundKey = "Gameplay"
	SoundtrackCredits  SoundKey = "Credits"
)

// SettingTiers are the escalating setting loops, one per 0.7s band by default.
var SettingTiers = [4]SoundKey{SoundSetting1, SoundSetting2, SoundSetting3, SoundSetting4}

var (
	clockDownSounds  = [4]SoundKey{SoundClockDown1, SoundClockDown2, SoundClockDown3, SoundClockDown4}
	clockSpawnSounds = [4]SoundKey{SoundClockSpawn1, SoundClockSpawn2, SoundClockSpawn3, SoundClockSpawn4}
	stepSounds       = [4]SoundKey{SoundStep1, SoundStep2, SoundStep3, SoundStep4}
)

// AllSounds lists every key the simulation can emit.
func AllSounds() []SoundKey {
	return []SoundKey{
		SoundTicking1, SoundTicking2, SoundTicking3, SoundTicking4, SoundTicking5, SoundTicking6,
		SoundSetting1, SoundSetting2, SoundSetting3, SoundSetting4, SoundWinding,
		SoundClockDown1, SoundClockDown2, SoundClockDown3, SoundClockDown4,
		SoundClockSpawn1, SoundClockSpawn2, SoundClockSpawn3, SoundClockSpawn4,
		SoundOilDrink, SoundStep1, SoundStep2, SoundStep3, SoundStep4,
		SoundtrackMenu, SoundtrackGameplay, SoundtrackCredits,
	}
}

// pick chooses uniformly among four variants.
func pick(r *rand.Rand, keys [4]SoundKey) SoundKey {
	return keys[r.IntN(len(keys))]
}
