package types

type RequestAuthLogin struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type RequestLoginCode struct {
	Phone string `json:"phone" form:"phone"`
}

type RequestSendMessage struct {
	ChatJID string `json:"chat_jid" form:"chat_jid"`
	Message string `json:"message" form:"message"`
}

type RequestSendDocument struct {
	ChatJID  string `json:"chat_jid" form:"chat_jid"`
	FilePath string `json:"file_path" form:"file_path"`
	FileName string `json:"file_name" form:"file_name"`
}

type RequestWatermarkBatch struct {
	FolderPath    string `json:"folder_path" form:"folder_path"`
	ChatJID       string `json:"chat_jid" form:"chat_jid"`
	Text          string `json:"text" form:"text"`
	FontPath      string `json:"font_path" form:"font_path"`
	WatermarkPath string `json:"watermark_path" form:"watermark_path"`
	Caption       string `json:"caption" form:"caption"`
	Scale         int    `json:"scale" form:"scale"`
	Opacity       int    `json:"opacity" form:"opacity"`
	Anchor        string `json:"anchor" form:"anchor"`
	Padding       int    `json:"padding" form:"padding"`
	Workers       int    `json:"workers" form:"workers"`
}

type RequestDownloadMedia struct {
	ChatJID    string   `json:"chat_jid" form:"chat_jid"`
	SenderJID  string   `json:"sender_jid" form:"sender_jid"`
	MediaTypes []string `json:"media_types" form:"media_types"`
	Since      string   `json:"since" form:"since"`
	Until      string   `json:"until" form:"until"`
	Limit      int      `json:"limit" form:"limit"`
	OutputDir  string   `json:"output_dir" form:"output_dir"`
}

type RequestBulkMessage struct {
	Recipients    []string `json:"recipients" form:"recipients"`
	GroupJID      string   `json:"group_jid" form:"group_jid"`
	SampleSize    int      `json:"sample_size" form:"sample_size"`
	Message       string   `json:"message" form:"message"`
	RatePerMinute int      `json:"rate_per_minute" form:"rate_per_minute"`
	JitterSeconds int      `json:"jitter_seconds" form:"jitter_seconds"`
	DryRun        bool     `json:"dry_run" form:"dry_run"`
}

type RequestExportMembers struct {
	GroupJID   string `json:"group_jid" form:"group_jid"`
	OutputPath string `json:"output_path" form:"output_path"`
}

type RequestAnalyzeChat struct {
	ChatJID string `json:"chat_jid" form:"chat_jid"`
	Since   string `json:"since" form:"since"`
	Until   string `json:"until" form:"until"`
	Top     int    `json:"top" form:"top"`
}

type RequestStaleContacts struct {
	InactiveDays int `json:"inactive_days" form:"inactive_days"`
}

type RequestGlobalSearch struct {
	Query      string `json:"query" form:"query"`
	ChatJID    string `json:"chat_jid" form:"chat_jid"`
	Limit      int    `json:"limit" form:"limit"`
	OutputPath string `json:"output_path" form:"output_path"`
}

type RequestBulkArchive struct {
	MutedOnly    bool `json:"muted_only" form:"muted_only"`
	GroupsOnly   bool `json:"groups_only" form:"groups_only"`
	InactiveDays int  `json:"inactive_days" form:"inactive_days"`
	Mute         bool `json:"mute" form:"mute"`
	DryRun       bool `json:"dry_run" form:"dry_run"`
}

type RequestExportChat struct {
	ChatJID    string `json:"chat_jid" form:"chat_jid"`
	Range      string `json:"range" form:"range"`
	Since      string `json:"since" form:"since"`
	Until      string `json:"until" form:"until"`
	Format     string `json:"format" form:"format"`
	OutputPath string `json:"output_path" form:"output_path"`
}

type RequestCleanMessages struct {
	ChatJID   string `json:"chat_jid" form:"chat_jid"`
	Limit     int    `json:"limit" form:"limit"`
	BatchSize int    `json:"batch_size" form:"batch_size"`
	DryRun    bool   `json:"dry_run" form:"dry_run"`
}
