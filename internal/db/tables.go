package db

import "os"

func EventsTableName() string {
	return os.Getenv("EVENTS_TABLE")
}

func ProfilesTableName() string {
	return os.Getenv("PROFILES_TABLE")
}

func AIUsageTableName() string {
	return os.Getenv("AI_USAGE_TABLE")
}

func IntegrationsTableName() string {
	return os.Getenv("INTEGRATIONS_TABLE")
}

func WebhookDedupeTableName() string {
	return os.Getenv("WEBHOOK_DEDUPE_TABLE")
}
