//go:build !integration

package selection

import (
	"fmt"

	"captionSelector/domain"
)

// fixedSource replays a gaussian sequence; uniforms are always 0.5.
type fixedSource struct {
	gaussians []float64
	i         int
}

func (f *fixedSource) NextUniform() float64 { return 0.5 }

func (f *fixedSource) NextGaussian() float64 {
	if len(f.gaussians) == 0 {
		return 0
	}
	v := f.gaussians[f.i%len(f.gaussians)]
	f.i++
	return v
}

func zeroSource() *fixedSource { return &fixedSource{} }

func makeCaption(id string, tier domain.PriceTier, category string) domain.Caption {
	return domain.Caption{
		CaptionID:        id,
		Text:             fmt.Sprintf("caption %s about %s", id, category),
		Platform:         "onlyfans",
		PriceTier:        tier,
		ContentCategory:  category,
		PerformanceScore: 50,
	}
}

func coldUsage(creatorID string) RecentUsage {
	return BuildRecentUsage(creatorID, domain.TruncateDate(testNow), nil)
}
