package email

const subjectAdvisorLeadFmt = "New lead assigned: %s"
