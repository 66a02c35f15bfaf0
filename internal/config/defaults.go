package config

// Default returns the canonical settings used when no file is present.
func Default() Settings {
	return Settings{
		Endpoint:          "https://workflows.tubenote.app/webhook/transcript",
		AuthStartEndpoint: "https://workflows.tubenote.app/webhook/device-code",
		AuthPollEndpoint:  "https://workflows.tubenote.app/webhook/device-poll",
		Language:          "en",
		SendMethod:        "post",
		IncludeTitle:      true,
		ClipboardCmd:      "wl-paste --no-newline",

		RequestTimeoutSeconds: 120,
		CountdownSeconds:      25,

		LogLevel: "info",
	}
}
