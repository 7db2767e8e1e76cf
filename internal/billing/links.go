package billing

import (
	"fmt"
	"net/url"

	"invoice-automation/backend/pkg/security"
)

// Quotation response actions, used in public links
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// responseURL builds the public accept or decline link, signed when a signer is configured
func responseURL(appURL, id, action string, signer *security.LinkSigner) string {
	link := fmt.Sprintf("%s/quotations/%s/%s", appURL, url.PathEscape(id), action)
	if signer == nil {
		return link
	}
	return link + "?sig=" + signer.Sign(id, action)
}
