package domain

// BuiltinTemplate is the fixed content seeded as the default for a type when
// no default exists yet.
type BuiltinTemplate struct {
	Name      string
	Type      TemplateType
	Subject   string
	HTMLBody  string
	TextBody  string
	Variables []Variable
}

// BuiltinTemplates returns the seed set, one entry per TemplateTypes element.
// A fresh slice is returned on every call.
func BuiltinTemplates() []BuiltinTemplate {
	return []BuiltinTemplate{
		{
			Name:    "Default Job Apply Invite",
			Type:    TypeJobApplyInvite,
			Subject: "{{companyName}} invites you to apply for {{jobTitle}}",
			HTMLBody: `<p>Hi {{candidateName}},</p>
<p>{{recruiterName}} from <strong>{{companyName}}</strong> thinks you would be a great fit for the <strong>{{jobTitle}}</strong> role in {{jobLocation}}.</p>
<p><a href="{{applyUrl}}">View the job and apply</a></p>
<p>Good luck!</p>`,
			TextBody: `Hi {{candidateName}},

{{recruiterName}} from {{companyName}} thinks you would be a great fit for the {{jobTitle}} role in {{jobLocation}}.

View the job and apply: {{applyUrl}}`,
			Variables: []Variable{
				{Name: "candidateName", Description: "Candidate's display name", Example: "Asha Rao"},
				{Name: "recruiterName", Description: "Name of the inviting recruiter", Example: "Daniel Kim"},
				{Name: "companyName", Description: "Hiring company", Example: "Acme Corp"},
				{Name: "jobTitle", Description: "Title of the job posting", Example: "Backend Engineer"},
				{Name: "jobLocation", Description: "Job location", Example: "Bengaluru"},
				{Name: "applyUrl", Description: "Link to the job application page", Example: "https://jobs.example.com/j/123"},
			},
		},
		{
			Name:    "Default Employer Confirmation",
			Type:    TypeEmployerConfirmation,
			Subject: "Confirm your employer account at {{platformName}}",
			HTMLBody: `<p>Hello {{employerName}},</p>
<p>Please confirm the employer account for <strong>{{companyName}}</strong> by clicking the link below.</p>
<p><a href="{{confirmUrl}}">Confirm my account</a></p>
<p>This link expires in {{expiresIn}}.</p>`,
			TextBody: `Hello {{employerName}},

Please confirm the employer account for {{companyName}}: {{confirmUrl}}
This link expires in {{expiresIn}}.`,
			Variables: []Variable{
				{Name: "employerName", Description: "Account holder's name", Example: "Priya Shah"},
				{Name: "companyName", Description: "Employer company", Example: "Acme Corp"},
				{Name: "platformName", Description: "Product name", Example: "Recruitly"},
				{Name: "confirmUrl", Description: "Account confirmation link", Example: "https://app.example.com/confirm/abc"},
				{Name: "expiresIn", Description: "Human readable link lifetime", Example: "24 hours"},
			},
		},
		{
			Name:    "Default Employer Welcome",
			Type:    TypeEmployerWelcome,
			Subject: "Welcome to {{platformName}}, {{employerName}}",
			HTMLBody: `<p>Hi {{employerName}},</p>
<p>Your employer account is ready. Start posting jobs and inviting candidates from your <a href="{{dashboardUrl}}">dashboard</a>.</p>`,
			TextBody: `Hi {{employerName}},

Your employer account is ready. Open your dashboard: {{dashboardUrl}}`,
			Variables: []Variable{
				{Name: "employerName", Description: "Account holder's name", Example: "Priya Shah"},
				{Name: "platformName", Description: "Product name", Example: "Recruitly"},
				{Name: "dashboardUrl", Description: "Employer dashboard link", Example: "https://app.example.com/employer"},
			},
		},
		{
			Name:    "Default Jobseeker Welcome",
			Type:    TypeJobseekerWelcome,
			Subject: "Welcome to {{platformName}}, {{candidateName}}",
			HTMLBody: `<p>Hi {{candidateName}},</p>
<p>Thanks for joining {{platformName}}. Complete your <a href="{{profileUrl}}">resume</a> so employers can find you.</p>`,
			TextBody: `Hi {{candidateName}},

Thanks for joining {{platformName}}. Complete your resume: {{profileUrl}}`,
			Variables: []Variable{
				{Name: "candidateName", Description: "Candidate's display name", Example: "Asha Rao"},
				{Name: "platformName", Description: "Product name", Example: "Recruitly"},
				{Name: "profileUrl", Description: "Resume builder link", Example: "https://app.example.com/resume"},
			},
		},
		{
			Name:    "Default Company Welcome",
			Type:    TypeCompanyWelcome,
			Subject: "{{companyName}} is now on {{platformName}}",
			HTMLBody: `<p>Hello {{contactName}},</p>
<p><strong>{{companyName}}</strong> has been registered. Add your team members and publish your first opening from the <a href="{{dashboardUrl}}">company dashboard</a>.</p>`,
			TextBody: `Hello {{contactName}},

{{companyName}} has been registered. Company dashboard: {{dashboardUrl}}`,
			Variables: []Variable{
				{Name: "contactName", Description: "Primary contact name", Example: "Rahul Mehta"},
				{Name: "companyName", Description: "Registered company", Example: "Acme Corp"},
				{Name: "platformName", Description: "Product name", Example: "Recruitly"},
				{Name: "dashboardUrl", Description: "Company dashboard link", Example: "https://app.example.com/company"},
			},
		},
		{
			Name:    "Default Consultancy Welcome",
			Type:    TypeConsultancyWelcome,
			Subject: "Welcome aboard, {{consultancyName}}",
			HTMLBody: `<p>Hello {{contactName}},</p>
<p>Your consultancy <strong>{{consultancyName}}</strong> can now source candidates for client companies on {{platformName}}. Get started at your <a href="{{dashboardUrl}}">dashboard</a>.</p>`,
			TextBody: `Hello {{contactName}},

{{consultancyName}} can now source candidates on {{platformName}}. Dashboard: {{dashboardUrl}}`,
			Variables: []Variable{
				{Name: "contactName", Description: "Primary contact name", Example: "Meera Iyer"},
				{Name: "consultancyName", Description: "Consultancy name", Example: "TalentBridge"},
				{Name: "platformName", Description: "Product name", Example: "Recruitly"},
				{Name: "dashboardUrl", Description: "Consultancy dashboard link", Example: "https://app.example.com/consultancy"},
			},
		},
	}
}
