package spotify

type Track struct {
	Id       string    `json:"id"`
	Name     string    `json:"name"`
	URI      string    `json:"uri"`
	Explicit bool      `json:"explicit"`
	Artists  []*Artist `json:"artists"`
}

type Artist struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type Playlist struct {
	Id    string `json:"id"`
	Owner struct {
		Id          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type User struct {
	Id          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}

type SearchResponse struct {
	Tracks struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}
