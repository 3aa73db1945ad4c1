package catalog

// BookMetadata is the normalized shape of one book as returned by the
// metadata collaborator, ready for insertion.
type BookMetadata struct {
	ISBN          string `json:"isbn"`
	Title         string `json:"title"`
	Publisher     string `json:"publisher"`
	PublishedDate string `json:"publishedDate"`
	Description   string `json:"description"`
	PageCount     int    `json:"pageCount"`
	PrintType     string `json:"printType"`
	Language      string `json:"language"`
	InfoLink      string `json:"infoLink"`
	Thumbnail     string `json:"thumbnail"`
}

// AuthorDetails holds the biographical fields an enrichment source can
// supply. Empty strings mean "no value"; the update path never overwrites
// a populated column with them.
type AuthorDetails struct {
	BirthDate   string `json:"birthDate"`
	DeathDate   string `json:"deathDate"`
	Nationality string `json:"nationality"`
	Sex         string `json:"sex"`
	Bio         string `json:"bio"`
	AuthorLink  string `json:"authorLink"`
}

// AuthorRecord identifies one author row for the enrichment pipeline.
type AuthorRecord struct {
	ID   string
	Name string
}
