package prompt

// bytesPerToken is the ratio used by EstimateTokens.
const bytesPerToken = 4

// EstimateTokens approximates the token count of s as ceil(len(s)/4).
// The estimate is deterministic and never decreases as s grows.
func EstimateTokens(s string) int {
	return (len(s) + bytesPerToken - 1) / bytesPerToken
}
