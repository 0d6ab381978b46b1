package domain

// Category is a breed-independent image category exposed by the catalog (hats, boxes, ...).
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Weight holds a breed's weight range in both unit systems.
type Weight struct {
	Imperial string `json:"imperial,omitempty"`
	Metric   string `json:"metric,omitempty"`
}

// Breed describes a cat breed as returned by the upstream catalog.
// Trait scores range from 1 to 5; a zero value means the upstream omitted it.
type Breed struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Origin           string `json:"origin,omitempty"`
	Temperament      string `json:"temperament,omitempty"`
	LifeSpan         string `json:"life_span,omitempty"`
	Weight           Weight `json:"weight"`
	Adaptability     int    `json:"adaptability,omitempty"`
	AffectionLevel   int    `json:"affection_level,omitempty"`
	ChildFriendly    int    `json:"child_friendly,omitempty"`
	DogFriendly      int    `json:"dog_friendly,omitempty"`
	EnergyLevel      int    `json:"energy_level,omitempty"`
	Grooming         int    `json:"grooming,omitempty"`
	HealthIssues     int    `json:"health_issues,omitempty"`
	Intelligence     int    `json:"intelligence,omitempty"`
	SheddingLevel    int    `json:"shedding_level,omitempty"`
	SocialNeeds      int    `json:"social_needs,omitempty"`
	StrangerFriendly int    `json:"stranger_friendly,omitempty"`
	Vocalisation     int    `json:"vocalisation,omitempty"`
	WikipediaURL     string `json:"wikipedia_url,omitempty"`
}

// CatImage is a single catalog image with the breeds it depicts.
type CatImage struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Breeds []Breed `json:"breeds"`
}

// PrimaryBreed returns the first breed attached to the image, if any.
func (c CatImage) PrimaryBreed() (Breed, bool) {
	if len(c.Breeds) == 0 {
		return Breed{}, false
	}
	return c.Breeds[0], true
}

// Traits returns the numeric trait scores in display order.
func (b Breed) Traits() []Trait {
	return []Trait{
		{Name: "Adaptability", Score: b.Adaptability},
		{Name: "Affection", Score: b.AffectionLevel},
		{Name: "Child friendly", Score: b.ChildFriendly},
		{Name: "Dog friendly", Score: b.DogFriendly},
		{Name: "Energy", Score: b.EnergyLevel},
		{Name: "Grooming", Score: b.Grooming},
		{Name: "Health issues", Score: b.HealthIssues},
		{Name: "Intelligence", Score: b.Intelligence},
		{Name: "Shedding", Score: b.SheddingLevel},
		{Name: "Social needs", Score: b.SocialNeeds},
		{Name: "Stranger friendly", Score: b.StrangerFriendly},
		{Name: "Vocalisation", Score: b.Vocalisation},
	}
}

// Trait is a named 1-5 score.
type Trait struct {
	Name  string
	Score int
}
