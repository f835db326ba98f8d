package algorithms

// DoDSequence is the DoD 5220.22-M 3-pass sequence: 0x00,
// 0xFF, then random data.
func DoDSequence() []Pass {
	return []Pass{
		{Kind: PassPattern, Pattern: ZeroPattern, Description: "DoD pass 1: 0x00"},
		{Kind: PassPattern, Pattern: OnesPattern, Description: "DoD pass 2: 0xFF"},
		{Kind: PassRandom, Description: "DoD pass 3: random"},
	}
}
