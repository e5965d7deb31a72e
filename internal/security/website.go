package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// WebsiteValidator はリードに登録するWebサイトURLを検証する。
type WebsiteValidator interface {
	// ValidateWebsite はURLが公開Webサイトとして妥当かを検証する。
	// http/https 以外のスキーム、空ホスト、認証情報付きURL、
	// プライベートIPやlocalhostを指すURLはエラーとする。
	ValidateWebsite(rawURL string) error
}

var allowedSchemes = []string{"http", "https"}

// blockedNetworks はWebサイトとして登録を拒否するネットワーク範囲。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"0.0.0.0/8",
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

type websiteValidator struct{}

var _ WebsiteValidator = (*websiteValidator)(nil)

// NewWebsiteValidator はWebsiteValidatorの新しいインスタンスを生成する。
func NewWebsiteValidator() *websiteValidator {
	return &websiteValidator{}
}

// ValidateWebsite はDNS解決を伴わない静的な検証を行う。
func (v *websiteValidator) ValidateWebsite(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %q (allowed: %v)", scheme, allowedSchemes)
	}
	if parsed.User != nil {
		return fmt.Errorf("credentials in URL are not allowed")
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}
	return nil
}

func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
