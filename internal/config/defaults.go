package config

import "time"

// Default returns the stock Panor.am site configuration. Every call returns a
// fresh value so callers may decode on top of it.
func Default() *Config {
	return &Config{
		Target: TargetStatic,
		Head: HeadConfig{
			TitleTemplate: "%s - Panor.am",
			Title:         "Panor.am",
			Meta: []map[string]string{
				{"charset": "utf-8"},
				{"name": "viewport", "content": "width=device-width, initial-scale=1"},
				{"hid": "description", "name": "description", "content": ""},
			},
			Link: []map[string]string{
				{"rel": "icon", "type": "image/x-icon", "href": "/favicon.ico"},
			},
		},
		CSS: []string{},
		Plugins: []Plugin{
			{Src: "@/plugins/composition-api"},
			{Src: "~plugins/ga.js", Mode: PluginModeClient},
		},
		Components: true,
		BuildModules: []Module{
			{Name: "@nuxt/typescript-build"},
			{Name: "@nuxtjs/stylelint-module"},
			{Name: "@nuxtjs/vuetify", Options: map[string]any{"defaultAssets": false}},
			{Name: "nuxt-purgecss"},
		},
		Modules: []Module{
			{Name: "@nuxtjs/axios"},
			{Name: "@nuxtjs/pwa"},
			{Name: "@nuxt/content"},
		},
		Content: ContentConfig{
			Dir:      "content",
			Sanitize: true,
		},
		Theme: ThemeConfig{
			CustomVariables: []string{"~/assets/variables.scss"},
			DefaultAssets:   false,
			Dark:            true,
			Themes: map[string]map[string]string{
				"dark": {
					"primary":   "blue.darken2",
					"accent":    "grey.darken3",
					"secondary": "amber.darken3",
					"info":      "teal.lighten1",
					"warning":   "amber.base",
					"error":     "deepOrange.accent4",
					"success":   "green.accent3",
				},
			},
		},
		PurgeCSS: PurgeCSSConfig{
			Content: []string{
				"components/**/*.vue",
				"layouts/**/*.vue",
				"pages/**/*.vue",
				"plugins/**/*.js",
				"node_modules/vuetify/src/**/*.ts",
				"node_modules/vuetify/src/**/*.js",
			},
			StyleExtensions: []string{".css"},
			Safelist: Safelist{
				Standard: []string{"body", "html", "nuxt-progress"},
				Deep: []string{
					"page-enter",
					"page-leave",
					"dialog-transition",
					"tab-transition",
					"tab-reversetransition",
				},
			},
		},
		Build: BuildConfig{
			Analyze:    false,
			Parallel:   false,
			ExtractCSS: true,
			SplitChunks: SplitChunksConfig{
				MinSize:              20000,
				MaxSize:              60000,
				EnforceSizeThreshold: 50000,
				Layouts:              true,
				Pages:                true,
				Commons:              true,
			},
		},
		Render: RenderConfig{Crossorigin: ""},
		Router: RouterConfig{Base: "/"},
		Generate: GenerateConfig{
			Dir:         "dist",
			Concurrency: 500,
			Interval:    0,
			Subfolders:  true,
			Crawler:     true,
			Fallback:    "404.html",
			FailOnError: true,
			StaticDir:   "static",
			Cache: CacheConfig{
				Ignore: []string{
					"lighthouserc.pr.js",
					"budget.json",
					"README.md",
					".github",
					".idea",
					"dist",
					"node_modules",
					"test",
					"cypress",
				},
			},
			Notify: NotifyConfig{
				Stream:  "PANORAMA",
				Subject: "panorama.generate",
				Timeout: 5 * time.Second,
			},
		},
		Monitoring: MonitoringConfig{
			Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
			Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		},
	}
}
