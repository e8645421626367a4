package render

import (
	"fmt"
	"strconv"
	"strings"

	"timeback/internal/segments"
)

// FilterGraph builds a filter_complex that trims every segment out of input 0
// and concatenates the pieces. Output pads are [outv] (when withVideo) and
// [outa].
func FilterGraph(keep []segments.KeepSegment, withVideo bool) string {
	var b strings.Builder
	for i, seg := range keep {
		start, end := formatTime(seg.Start), formatTime(seg.End)
		if withVideo {
			fmt.Fprintf(&b, "[0:v:0]trim=start=%s:end=%s,setpts=PTS-STARTPTS[v%d];", start, end, i)
		}
		fmt.Fprintf(&b, "[0:a:0]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[a%d];", start, end, i)
	}
	for i := range keep {
		if withVideo {
			fmt.Fprintf(&b, "[v%d]", i)
		}
		fmt.Fprintf(&b, "[a%d]", i)
	}
	video := 0
	if withVideo {
		video = 1
	}
	fmt.Fprintf(&b, "concat=n=%d:v=%d:a=1", len(keep), video)
	if withVideo {
		b.WriteString("[outv]")
	}
	b.WriteString("[outa]")
	return b.String()
}

func formatTime(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
