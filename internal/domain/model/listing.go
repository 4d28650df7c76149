package model

import "time"

// Listing is a marketplace offer for a camel.
type Listing struct {
	ID         string    `json:"id" validate:"required"`
	Title      string    `json:"title" validate:"required"`
	CamelID    string    `json:"camel_id"`
	CamelName  string    `json:"camel_name"`
	City       string    `json:"location_city"`
	Province   string    `json:"location_province"`
	Sex        Sex       `json:"camel_sex" validate:"omitempty,oneof=male female"`
	Breed      string    `json:"camel_breed"`
	Color      string    `json:"camel_color"`
	Age        int       `json:"camel_age" validate:"gte=0"`
	Price      float64   `json:"price" validate:"gte=0"`
	Overall    float64   `json:"overall_score"`
	Scores     SubScores `json:"scores,omitempty"`
	Negotiable bool      `json:"is_negotiable"`
	Featured   bool      `json:"is_featured"`
	ViewCount  int       `json:"view_count" validate:"gte=0"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidateListing checks the listing's declared constraints.
func ValidateListing(l Listing) error {
	if err := validate.Struct(l); err != nil {
		return err
	}
	return l.Scores.CheckRange()
}

// Text implements query.Record.
func (l Listing) Text(field string) (string, bool) {
	switch field {
	case "id":
		return l.ID, true
	case "title":
		return l.Title, true
	case "camel_name", "name":
		return l.CamelName, true
	case "city":
		return l.City, true
	case "province":
		return l.Province, true
	case "sex":
		return string(l.Sex), true
	case "breed":
		return l.Breed, true
	case "color":
		return l.Color, true
	}
	return "", false
}

// Number implements query.Record.
func (l Listing) Number(field string) (float64, bool) {
	switch field {
	case "age":
		return float64(l.Age), true
	case "price":
		return l.Price, true
	case "overall_score", "score":
		return l.Overall, true
	case "view_count":
		return float64(l.ViewCount), true
	case "created_at":
		return float64(l.CreatedAt.UnixNano()), true
	}
	v, ok := l.Scores[Region(field)]
	return v, ok
}

// Flag implements query.Record.
func (l Listing) Flag(field string) (bool, bool) {
	switch field {
	case "negotiable":
		return l.Negotiable, true
	case "featured":
		return l.Featured, true
	}
	return false, false
}
