package models

// ChannelTypeText is the discord channel type for guild text channels.
const ChannelTypeText = 0

type UserRecord struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	GlobalName   string `json:"global_name"`
	DMChannelID  string `json:"dm_channel_id"`
	AuthorizedAt string `json:"authorized_at"`
}

func (u UserRecord) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	if u.Username != "" {
		return u.Username
	}
	return "?"
}

type Author struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

func (a Author) DisplayName() string {
	if a.GlobalName != "" {
		return a.GlobalName
	}
	if a.Username != "" {
		return a.Username
	}
	return "Unknown"
}

type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     int    `json:"type"`
	Position int    `json:"position"`
}

type Message struct {
	ID        string `json:"id"`
	Author    Author `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}
