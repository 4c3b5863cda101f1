package email

const (
	subjectAccountApproved     = "Ihr Zugang wurde freigeschaltet"
	subjectCallbackReminderFmt = "Erinnerung: Rückruf für %s"
)
