package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailApplicationStatus   = "application_status"
	MailEntitlementUpgraded = "entitlement_upgraded"
)

type ApplicationStatusMailData struct {
	ApplicationID int64             `json:"applicationID"`
	JobTitle      string            `json:"jobTitle"`
	Status        ApplicationStatus `json:"status"`
}

type EntitlementUpgradedMailData struct {
	Tier Tier `json:"tier"`
}
