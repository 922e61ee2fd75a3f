// Package report renders grading results: the per-student feedback
// letter and the batch summary table.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gradekit/autograde/internal/model"
)

// Score combines the configured point total with the (usually negative)
// rule and analysis points. The sum is reported as-is: extra credit may
// push past the total and heavy deductions may go negative.
func Score(totalPoints int, prePoints, postPoints float64) float64 {
	return float64(totalPoints) + prePoints + postPoints
}

// Letter renders the feedback letter returned to one student.
func Letter(res model.GradingResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis of homework file: %s\n\n", res.Codefile)
	if res.HasScore {
		fmt.Fprintf(&b, "You scored %s out of %d.\n\n",
			strconv.FormatFloat(res.Score, 'g', -1, 64), res.TotalPoints)
	}
	b.WriteString("\nCode analysis:\n")
	b.WriteString(res.PreText)
	b.WriteString("\nAnalysis of results:\n")
	b.WriteString(res.PostText)
	return b.String()
}
