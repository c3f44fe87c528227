package words

import "math/rand/v2"

// fallbackPairs are served whenever a themed batch cannot be produced.
var fallbackPairs = []Pair{
	{CitizenWord: "りんご", WolfWord: "みかん"},
	{CitizenWord: "犬", WolfWord: "猫"},
	{CitizenWord: "コーヒー", WolfWord: "紅茶"},
	{CitizenWord: "野球", WolfWord: "サッカー"},
	{CitizenWord: "夏", WolfWord: "冬"},
	{CitizenWord: "電車", WolfWord: "バス"},
	{CitizenWord: "ラーメン", WolfWord: "うどん"},
	{CitizenWord: "山", WolfWord: "海"},
	{CitizenWord: "ピアノ", WolfWord: "ギター"},
	{CitizenWord: "映画", WolfWord: "ドラマ"},
}

// reserved holds every fallback word. Generated pairs may not use them, so a
// fallback word is never passed off as theme-specific.
var reserved = func() map[string]struct{} {
	m := make(map[string]struct{}, 2*len(fallbackPairs))
	for _, p := range fallbackPairs {
		m[p.CitizenWord] = struct{}{}
		m[p.WolfWord] = struct{}{}
	}
	return m
}()

// Fallback returns a uniformly random pair from the fallback pool.
func Fallback() Pair {
	return fallbackPairs[rand.IntN(len(fallbackPairs))]
}

// FallbackPairs returns a copy of the fallback pool.
func FallbackPairs() []Pair {
	out := make([]Pair, len(fallbackPairs))
	copy(out, fallbackPairs)
	return out
}

// IsReserved reports whether word belongs to the fallback vocabulary.
func IsReserved(word string) bool {
	_, ok := reserved[word]
	return ok
}
