package entity

// 作者徽章
const (
	Badge100KViews      = "100K Views"
	Badge50KViews       = "50K Views"
	Badge10KViews       = "10K Views"
	BadgeProlificWriter = "Prolific Writer"
	BadgeActiveWriter   = "Active Writer"
	BadgeTopRated       = "Top Rated"
	BadgeFinisher       = "Finisher"
)

// ComputeBadges 根据作者全部作品计算徽章
// Top Rated 只统计有评分的作品
func ComputeBadges(novels []*Novel) StringList {
	badges := StringList{}

	var views int64
	var ratingSum float64
	rated, completed := 0, 0
	for _, n := range novels {
		views += n.Views
		if n.RatingCount > 0 {
			ratingSum += n.RatingAverage
			rated++
		}
		if n.Status == NovelStatusCompleted {
			completed++
		}
	}

	switch {
	case views >= 100000:
		badges = append(badges, Badge100KViews)
	case views >= 50000:
		badges = append(badges, Badge50KViews)
	case views >= 10000:
		badges = append(badges, Badge10KViews)
	}

	switch {
	case len(novels) >= 10:
		badges = append(badges, BadgeProlificWriter)
	case len(novels) >= 5:
		badges = append(badges, BadgeActiveWriter)
	}

	if rated > 0 && ratingSum/float64(rated) >= 4.5 {
		badges = append(badges, BadgeTopRated)
	}
	if completed >= 3 {
		badges = append(badges, BadgeFinisher)
	}
	return badges
}
