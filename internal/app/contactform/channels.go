package contactform

import "github.com/dalemusser/contactsection/internal/domain/models"

var channels = []models.ContactChannel{
	{
		Kind:  models.ChannelEmail,
		Label: "Email",
		Value: "sujalgiriiitp@gmail.com",
		Href:  "mailto:sujalgiriiitp@gmail.com",
	},
	{
		Kind:  models.ChannelPhone,
		Label: "Phone",
		Value: "+91 6306601592",
		Href:  "tel:+916306601592",
	},
	{
		Kind:  models.ChannelPortfolio,
		Label: "Portfolio",
		Value: "sujalgiriiitp-source.github.io",
		Href:  "https://sujalgiriiitp-source.github.io/portfolio/",
	},
	{
		Kind:  models.ChannelLinkedIn,
		Label: "LinkedIn",
		Value: "Sujal Giri",
		Href:  "https://www.linkedin.com/in/sujal-giri-9501253a0",
	},
}

var location = models.Location{
	Label: "Location",
	Place: "India",
	Blurb: "Available for remote internships and collaborations worldwide. " +
		"Currently open to learning opportunities in Data Analytics and Web Development.",
}

// Channels returns the contact channels in display order. The slice is a
// copy; callers may not change the package's list.
func Channels() []models.ContactChannel {
	out := make([]models.ContactChannel, len(channels))
	copy(out, channels)
	return out
}

// OwnerLocation returns the static location card.
func OwnerLocation() models.Location {
	return location
}
