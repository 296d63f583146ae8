package parse

import "strings"

const fenceMarker = "```"

// Format identifies how a block was found.
type Format string

const (
	// FormatJSON marks a fence explicitly tagged "json".
	FormatJSON Format = "json"
	// FormatGeneric marks an untagged fence whose body starts with '{' or '['.
	FormatGeneric Format = "generic"
)

// Block is one fenced code block found in source text. Start and End are
// byte offsets of the body in the original text, so text[Start:End] == Content.
type Block struct {
	Content string `json:"content"`
	Format  Format `json:"format"`
	Start   int    `json:"start_index"`
	End     int    `json:"end_index"`
}

// fence is a raw fenced region before classification.
type fence struct {
	tag       string
	bodyStart int
	bodyEnd   int
}

// ExtractBlocks returns the JSON candidate blocks of text in appearance order.
// Fences tagged "json" win: untagged fences are only considered when there are
// no tagged ones. Text outside fences is never inspected.
func ExtractBlocks(text string) []Block {
	var blocks []Block
	for _, f := range scanFences(text, true) {
		blocks = append(blocks, f.block(text, FormatJSON))
	}
	if len(blocks) > 0 {
		return blocks
	}

	blocks = []Block{}
	for _, f := range scanFences(text, false) {
		if f.tag != "" {
			continue
		}
		body := strings.TrimSpace(text[f.bodyStart:f.bodyEnd])
		if strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") {
			blocks = append(blocks, f.block(text, FormatGeneric))
		}
	}
	return blocks
}

func (f fence) block(text string, format Format) Block {
	return Block{
		Content: text[f.bodyStart:f.bodyEnd],
		Format:  format,
		Start:   f.bodyStart,
		End:     f.bodyEnd,
	}
}

// scanFences pairs opening and closing markers left to right. With jsonOnly
// set, only markers tagged "json" open a fence, so a stray marker in the
// surrounding prose cannot swallow a tagged block. An unterminated fence
// ends the scan.
func scanFences(text string, jsonOnly bool) []fence {
	var fences []fence
	pos := 0

	for pos < len(text) {
		open := strings.Index(text[pos:], fenceMarker)
		if open < 0 {
			break
		}
		infoStart := pos + open + len(fenceMarker)

		f, next, ok := readFence(text, infoStart)
		if jsonOnly && !strings.EqualFold(f.tag, "json") {
			pos = infoStart
			continue
		}
		if !ok {
			break
		}
		fences = append(fences, f)
		pos = next
	}

	return fences
}

// readFence reads the fence whose opening marker ends at infoStart. It
// returns the fence, the offset just past its closing marker and whether a
// closing marker was found. The tag is set even when ok is false.
func readFence(text string, infoStart int) (fence, int, bool) {
	infoEnd := len(text)
	if newline := strings.IndexByte(text[infoStart:], '\n'); newline >= 0 {
		infoEnd = infoStart + newline
	}
	info := text[infoStart:infoEnd]
	tag := leadingTag(info)

	// Single-line fence: ```json {"a":1}```
	if closeInLine := strings.Index(info, fenceMarker); closeInLine >= 0 {
		return fence{
			tag:       tag,
			bodyStart: infoStart + len(tag),
			bodyEnd:   infoStart + closeInLine,
		}, infoStart + closeInLine + len(fenceMarker), true
	}

	var bodyStart int
	switch {
	case strings.TrimSpace(info[len(tag):]) == "":
		bodyStart = infoEnd + 1
	case tag == "":
		bodyStart = infoStart
	default:
		bodyStart = infoStart + len(tag)
	}
	if bodyStart > len(text) {
		return fence{tag: tag}, 0, false
	}

	closing := strings.Index(text[bodyStart:], fenceMarker)
	if closing < 0 {
		return fence{tag: tag}, 0, false
	}
	return fence{
		tag:       tag,
		bodyStart: bodyStart,
		bodyEnd:   bodyStart + closing,
	}, bodyStart + closing + len(fenceMarker), true
}

// leadingTag returns the language tag at the start of a fence info string.
// A tag must be followed by whitespace or the end of the string, so a body
// that starts on the fence line ("```{...") has no tag.
func leadingTag(info string) string {
	end := 0
	for end < len(info) && isTagChar(info[end]) {
		end++
	}
	if end == 0 {
		return ""
	}
	if end < len(info) && info[end] != ' ' && info[end] != '\t' && info[end] != '\r' && info[end] != '`' {
		return ""
	}
	return info[:end]
}

func isTagChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '+' || c == '.'
}
