package audio

import (
	"time"

	"github.com/okian/clockery/internal/game"
)

// Recipe describes the synthesized stand-in for a sound asset: a sine tone
// gated on for On out of every Period. One-shots stop after Length.
type Recipe struct {
	Freq   float64
	On     time.Duration
	Period time.Duration
	Length time.Duration
	Volume float64
}

func tick(freq float64, period time.Duration) Recipe {
	return Recipe{Freq: freq, On: 12 * time.Millisecond, Period: period, Volume: 0.35}
}

func chirp(freq float64, length time.Duration) Recipe {
	return Recipe{Freq: freq, On: length, Period: length, Length: length, Volume: 0.5}
}

func drone(freq float64) Recipe {
	return Recipe{Freq: freq, On: time.Second, Period: time.Second, Volume: 0.12}
}

// DefaultRecipes covers every key in game.AllSounds.
func DefaultRecipes() map[game.SoundKey]Recipe {
	return map[game.SoundKey]Recipe{
		game.SoundTicking1: tick(1800, 500*time.Millisecond),
		game.SoundTicking2: tick(1900, 480*time.Millisecond),
		game.SoundTicking3: tick(2000, 520*time.Millisecond),
		game.SoundTicking4: tick(2100, 460*time.Millisecond),
		game.SoundTicking5: tick(2200, 540*time.Millisecond),
		game.SoundTicking6: tick(2300, 440*time.Millisecond),

		game.SoundSetting1: tick(900, 250*time.Millisecond),
		game.SoundSetting2: tick(1000, 180*time.Millisecond),
		game.SoundSetting3: tick(1100, 120*time.Millisecond),
		game.SoundSetting4: tick(1200, 80*time.Millisecond),
		game.SoundWinding:  {Freq: 320, On: 25 * time.Millisecond, Period: 60 * time.Millisecond, Volume: 0.3},

		game.SoundClockDown1: chirp(392, 400*time.Millisecond),
		game.SoundClockDown2: chirp(349, 400*time.Millisecond),
		game.SoundClockDown3: chirp(311, 400*time.Millisecond),
		game.SoundClockDown4: chirp(262, 400*time.Millisecond),

		game.SoundClockSpawn1: chirp(659, 250*time.Millisecond),
		game.SoundClockSpawn2: chirp(784, 250*time.Millisecond),
		game.SoundClockSpawn3: chirp(880, 250*time.Millisecond),
		game.SoundClockSpawn4: chirp(988, 250*time.Millisecond),

		game.SoundOilDrink: {Freq: 140, On: 80 * time.Millisecond, Period: 200 * time.Millisecond, Volume: 0.3},

		game.SoundStep1: chirp(180, 30*time.Millisecond),
		game.SoundStep2: chirp(200, 30*time.Millisecond),
		game.SoundStep3: chirp(220, 30*time.Millisecond),
		game.SoundStep4: chirp(240, 30*time.Millisecond),

		game.SoundtrackMenu:     drone(110),
		game.SoundtrackGameplay: drone(147),
		game.SoundtrackCredits:  drone(220),
	}
}
