package types

type NavbarData struct {
	IsAuthenticated bool
	IsAdmin         bool
	UserID          string
	UserEmail       string
	UserName        string
	AvatarURL       string
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
}

type BasePageData struct {
	Title  string
	Navbar NavbarData
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

type HomePageData struct {
	BasePageData
	Notice       string
	Error        string
	HeroQuote    string
	WhatsAppLink string
}

// DonorCard is the rendered view of one donor in a listing.
type DonorCard struct {
	ID             string
	FullName       string
	Initial        string
	Age            int
	Phone          string
	City           string
	District       string
	BloodGroup     BloodGroup
	Role           Role
	LastDonateDate string
	PhotoURL       string
	Eligible       bool
	RemainingDays  int
	HasEligibility bool
	ContactLink    string
}

type DonorsPageData struct {
	BasePageData
	Donors      []*DonorCard
	Filters     FilterCriteria
	BloodGroups []BloodGroup
	Districts   []string
	Cities      []string
	Total       int
	Notice      string
	Error       string
}

type LoginPageData struct {
	BasePageData
	Message string
	Error   string
	Email   string
}

type RegisterPageData struct {
	BasePageData
	Email       string
	Error       string
	FieldErrors map[string]string
}

type ConfirmRegisterPageData struct {
	BasePageData
	Email   string
	Error   string
	Message string
}

type ProfilePageData struct {
	BasePageData
	Action      string
	Heading     string
	Form        ProfileForm
	PhotoURL    string
	FieldErrors map[string]string
	Notice      string
	Error       string
	BloodGroups []BloodGroup
	Districts   []string
	Cities      []string
	Eligibility *EligibilityResult
}

type AdminPageData struct {
	BasePageData
	Tab         string
	Donors      []*DonorCard
	Config      *SiteConfig
	Total       int
	Notice      string
	Error       string
	FieldErrors map[string]string
}
