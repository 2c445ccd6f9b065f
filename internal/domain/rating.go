package domain

import "fmt"

// Rating is the user's response to a card review.
// 1: Again (show it again soon)
// 2: Hard
// 3: Good
// 4: Easy (done for this session)
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// IsValid reports whether r is one of the four accepted ratings.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

func (r Rating) String() string {
	switch r {
	case Again:
		return "Again"
	case Hard:
		return "Hard"
	case Good:
		return "Good"
	case Easy:
		return "Easy"
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}
