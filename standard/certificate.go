package standard

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/group"
)

// ExpiryWarningDays is the window in which a valid certificate is flagged.
const ExpiryWarningDays = 30

// Purpose is what a certificate is used for, inferred from its file name.
type Purpose int

const (
	PurposeServer Purpose = iota
	PurposeClient
	PurposeCA
	PurposeCAChain
)

// Purposes describes Purpose values.
var Purposes = attribute.EnumTable{
	int(PurposeServer):  "server",
	int(PurposeClient):  "client",
	int(PurposeCA):      "ca",
	int(PurposeCAChain): "ca-chain",
}

// Certificate is a parsed X.509 certificate and where it came from.
type Certificate struct {
	Path    string
	Purpose Purpose
	Cert    *x509.Certificate

	now func() time.Time
}

// LoadCertificate reads the first PEM block of path.
func LoadCertificate(path string) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotFound, "reading certificate %s", path)
	}
	cert, err := ParseCertificate(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "loading certificate %s", path)
	}
	cert.Path = path
	cert.Purpose = purposeOf(filepath.Base(path))
	return cert, nil
}

// ParseCertificate parses the first PEM block of data.
func ParseCertificate(data []byte) (*Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New(errors.ErrInvalidInput, "no PEM block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "parsing certificate")
	}
	return &Certificate{Cert: cert, now: time.Now}, nil
}

// SetClock replaces the time source used by the expiry facts.
func (c *Certificate) SetClock(now func() time.Time) { c.now = now }

// DaysUntilExpiry returns whole days left, negative once expired.
func (c *Certificate) DaysUntilExpiry() int {
	return int(c.Cert.NotAfter.Sub(c.now()).Hours() / 24)
}

// Expired reports whether the validity window has ended.
func (c *Certificate) Expired() bool {
	return c.now().After(c.Cert.NotAfter)
}

// ExpiryWarning reports a valid certificate close to expiry.
func (c *Certificate) ExpiryWarning() bool {
	return !c.Expired() && c.DaysUntilExpiry() <= ExpiryWarningDays
}

// SANs returns the subject alternative names as "DNS:" and "IP:" entries.
func (c *Certificate) SANs() []string {
	var sans []string
	for _, dns := range c.Cert.DNSNames {
		sans = append(sans, "DNS:"+dns)
	}
	for _, ip := range c.Cert.IPAddresses {
		sans = append(sans, "IP:"+ip.String())
	}
	return sans
}

// PrepareInspection contributes the certificate's facts.
func (c *Certificate) PrepareInspection(co *coordinator.Coordinator) {
	co.AppendStatic("subject", "", "", attribute.String(c.Cert.Subject.String()), group.General).
		AppendStatic("issuer", "", "", attribute.String(c.Cert.Issuer.String()), group.General).
		AppendStatic("serialNumber", "", "", attribute.String(c.Cert.SerialNumber.String()), group.General).
		AppendStatic("sans", "SANs", "", attribute.String(strings.Join(c.SANs(), ", ")), group.General).
		AppendStatic("validFrom", "", "", attribute.TimeValue(c.Cert.NotBefore), group.General).
		AppendStatic("validUntil", "", "", attribute.TimeValue(c.Cert.NotAfter), group.General)
	if c.Path != "" {
		co.AppendStatic("path", "", "", attribute.String(c.Path), group.General)
	}

	purpose := c.Purpose
	co.AppendEnum(group.General, Purposes,
		attribute.Prop("purpose", attribute.IntOf(func() Purpose { return purpose })))

	co.AppendDynamic(group.States,
		attribute.Prop("expired", attribute.BoolOf(c.Expired)),
		attribute.Prop("expiryWarning", attribute.BoolOf(c.ExpiryWarning)),
		attribute.Prop("daysUntilExpiry", attribute.IntOf(c.DaysUntilExpiry)),
	)
}

func purposeOf(filename string) Purpose {
	lower := strings.ToLower(filename)
	switch {
	case strings.Contains(lower, "ca-chain"):
		return PurposeCAChain
	case strings.Contains(lower, "ca.cert"):
		return PurposeCA
	case strings.Contains(lower, "-to-"):
		return PurposeClient
	default:
		return PurposeServer
	}
}
