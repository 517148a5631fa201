package config

type Config struct {
	Platform struct {
		BaseURL      string `json:"base_url"`
		LoginPath    string `json:"login_path"`
		HomePath     string `json:"home_path"`
		ArticlesPath string `json:"articles_path"`
		TokenCookie  string `json:"token_cookie"`
		Lang         string `json:"lang"`
	} `json:"platform"`

	Login struct {
		// chromedp 或 rod
		Driver             string `json:"driver"`
		TimeoutSeconds     int    `json:"timeout_seconds"`
		PollIntervalMillis int    `json:"poll_interval_millis"`
		QRCodeSelector     string `json:"qrcode_selector"`
		QRCodePath         string `json:"qrcode_path"`
	} `json:"login"`

	Fetch struct {
		PageSize int `json:"page_size"`
		// 0 表示不限制页数
		MaxPages int `json:"max_pages"`
	} `json:"fetch"`

	Rod struct {
		UserDataDir          string `json:"user_data_dir"`
		Headless             bool   `json:"headless"`
		DisableBlinkFeatures string `json:"disable_blink_features"`
		Incognito            bool   `json:"incognito"`
		DisableDevShmUsage   bool   `json:"disable_dev_shm_usage"`
		NoSandbox            bool   `json:"no_sandbox"`
		UserAgent            string `json:"user_agent"`
		Leakless             bool   `json:"leakless"`
		Bin                  string `json:"bin"`
	} `json:"rod"`

	Chromedp struct {
		LifeTime             int    `json:"life_time"`
		UserDataDir          string `json:"user_data_dir"`
		Headless             bool   `json:"headless"`
		DisableBlinkFeatures string `json:"disable_blink_features"`
		Incognito            bool   `json:"incognito"`
		DisableDevShmUsage   bool   `json:"disable_dev_shm_usage"`
		NoSandbox            bool   `json:"no_sandbox"`
		UserAgent            string `json:"user_agent"`
	} `json:"chromedp"`

	Colly struct {
		AllowedDomains []string `json:"allowed_domains"`
		UserAgent      string   `json:"user_agent"`
		Delay          int      `json:"delay"`
		RandomDelay    int      `json:"random_delay"`
		RequestTimeout int      `json:"request_timeout"`
	} `json:"colly"`

	Elasticsearch struct {
		Enabled  bool   `json:"enabled"`
		Username string `json:"username"`
		Password string `json:"password"`
		Address  string `json:"address"`
		Index    string `json:"index"`
		// 写入前删除并重建索引
		Recreate bool `json:"recreate"`
	} `json:"elasticsearch"`

	Embedder struct {
		Host        string `json:"host"`
		Port        int    `json:"port"`
		Model       string `json:"model"`
		BatchSize   int    `json:"batch_size"`
		Concurrency int    `json:"concurrency"`
	} `json:"embedder"`
}
