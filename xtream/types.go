package xtream

// UserInfo is the account block of the player_api authentication response.
// Auth is 1 on success, anything else is a rejection.
type UserInfo struct {
	Username             string   `json:"username"`
	Password             string   `json:"password"`
	Message              string   `json:"message"`
	Auth                 int      `json:"auth"`
	Status               string   `json:"status"`
	ExpDate              string   `json:"exp_date"`
	IsTrial              string   `json:"is_trial"`
	ActiveConnections    string   `json:"active_cons"`
	CreatedAt            string   `json:"created_at"`
	MaxConnections       string   `json:"max_connections"`
	AllowedOutputFormats []string `json:"allowed_output_formats"`
}

// ServerInfo is the server block of the player_api authentication response.
type ServerInfo struct {
	URL            string `json:"url"`
	Port           string `json:"port"`
	HTTPSPort      string `json:"https_port"`
	ServerProtocol string `json:"server_protocol"`
	Timezone       string `json:"timezone"`
	TimestampNow   int64  `json:"timestamp_now"`
	TimeNow        string `json:"time_now"`
}

// authResponse is the top-level player_api response without an action.
type authResponse struct {
	UserInfo   UserInfo   `json:"user_info"`
	ServerInfo ServerInfo `json:"server_info"`
}

// Category represents a live, VOD, or series category.
type Category struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	ParentID     int    `json:"parent_id"`
}

// Stream represents a live channel entry.
type Stream struct {
	Num               int    `json:"num"`
	Name              string `json:"name"`
	StreamType        string `json:"stream_type"`
	StreamID          int    `json:"stream_id"`
	StreamIcon        string `json:"stream_icon"`
	EPGChannelID      string `json:"epg_channel_id"`
	Added             string `json:"added"`
	CategoryID        string `json:"category_id"`
	CustomSID         string `json:"custom_sid"`
	TVArchive         int    `json:"tv_archive"`
	DirectSource      string `json:"direct_source"`
	TVArchiveDuration int    `json:"tv_archive_duration"`
}

// VODStream represents a movie entry in a VOD listing.
type VODStream struct {
	StreamID           int     `json:"stream_id"`
	Name               string  `json:"name"`
	Added              string  `json:"added"`
	CategoryID         string  `json:"category_id"`
	ContainerExtension string  `json:"container_extension"`
	StreamIcon         string  `json:"stream_icon"`
	Rating             string  `json:"rating"`
	Rating5Based       float64 `json:"rating_5based"`
	Plot               string  `json:"plot"`
}

// Series represents a series entry in a series listing.
type Series struct {
	SeriesID     int     `json:"series_id"`
	Name         string  `json:"name"`
	Cover        string  `json:"cover"`
	Plot         string  `json:"plot"`
	Cast         string  `json:"cast"`
	Director     string  `json:"director"`
	Genre        string  `json:"genre"`
	ReleaseDate  string  `json:"releaseDate"`
	Rating       string  `json:"rating"`
	Rating5Based float64 `json:"rating_5based"`
}

// MovieData is the core movie block of a get_movie_info response.
type MovieData struct {
	Name               string `json:"name"`
	StreamID           int    `json:"stream_id"`
	StreamIcon         string `json:"stream_icon"`
	Rating             string `json:"rating"`
	Added              string `json:"added"`
	CategoryID         string `json:"category_id"`
	ContainerExtension string `json:"container_extension"`
	CustomSID          string `json:"custom_sid"`
	DirectSource       string `json:"direct_source"`
}

// MediaTrack describes a subtitle or audio track attached to a movie.
type MediaTrack struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
}

// MovieInfo is the get_movie_info response.
type MovieInfo struct {
	MovieData      MovieData    `json:"movie_data"`
	SubtitleTracks []MediaTrack `json:"subtitle_tracks,omitempty"`
	AudioTracks    []MediaTrack `json:"audio_tracks,omitempty"`
}

// EPGListing is one entry of a get_short_epg response. Titles and
// descriptions arrive base64-encoded from most providers and are left as-is.
type EPGListing struct {
	ID             string `json:"id"`
	EPGID          string `json:"epg_id"`
	Title          string `json:"title"`
	Lang           string `json:"lang"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Description    string `json:"description"`
	ChannelID      string `json:"channel_id"`
	StartTimestamp int64  `json:"start_timestamp,string"`
	StopTimestamp  int64  `json:"stop_timestamp,string"`
}

// shortEPGResponse wraps a get_short_epg payload.
type shortEPGResponse struct {
	EPGListings []EPGListing `json:"epg_listings"`
}
