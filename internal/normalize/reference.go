package normalize

import (
	"errors"
	"regexp"
	"strings"
)

// Kind tags the class of web reference a recognizer handles
type Kind int

const (
	KindPlatform Kind = iota
	KindURL
	KindEmail
	KindDomain
)

func (k Kind) String() string {
	switch k {
	case KindPlatform:
		return "platform"
	case KindURL:
		return "url"
	case KindEmail:
		return "email"
	case KindDomain:
		return "domain"
	default:
		return "unknown"
	}
}

// Platform maps a well-known host to the name spoken for it. Subdomains of
// Host match as well
type Platform struct {
	Host string
	Name string
}

// DefaultPlatforms is the platform table used when none is configured
var DefaultPlatforms = []Platform{
	{Host: "github.com", Name: "GitHub"},
	{Host: "gitlab.com", Name: "GitLab"},
	{Host: "bitbucket.org", Name: "Bitbucket"},
	{Host: "youtube.com", Name: "YouTube"},
	{Host: "youtu.be", Name: "YouTube"},
	{Host: "stackoverflow.com", Name: "Stack Overflow"},
	{Host: "reddit.com", Name: "Reddit"},
	{Host: "medium.com", Name: "Medium"},
	{Host: "linkedin.com", Name: "LinkedIn"},
	{Host: "wikipedia.org", Name: "Wikipedia"},
}

// DefaultTLDs are the top-level domains accepted for hosts written without a
// scheme. Anything else ("Node.js", "index.html") stays prose
var DefaultTLDs = []string{
	"com", "org", "net", "edu", "gov", "mil", "io", "dev", "ai", "co", "app", "me",
	"info", "biz", "tv", "us", "uk", "ca", "de", "fr", "eu", "au", "jp", "ly", "gg", "xyz",
}

var (
	errUserInfo   = errors.New("credentials in host")
	errBadHost    = errors.New("invalid host")
	errBadPort    = errors.New("invalid port")
	errBadEmail   = errors.New("invalid email address")
	labelPattern  = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?$`)
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
	alphaPattern  = regexp.MustCompile(`^[A-Za-z]{2,}$`)
)

// reference is a candidate token split into its parts
type reference struct {
	scheme  string
	local   string
	labels  []string
	port    string
	hasPath bool
	path    []string
}

func (r *reference) isEmail() bool { return r.local != "" }

// urlForm reports whether the reference reads as a link rather than a name:
// it has a scheme, a path, or a www host
func (r *reference) urlForm() bool {
	return r.scheme != "" || r.hasPath || strings.EqualFold(r.labels[0], "www")
}

func (r *reference) tld() string {
	return strings.ToLower(r.labels[len(r.labels)-1])
}

// hostKey is the lower-cased host without a leading www label
func (r *reference) hostKey() string {
	labels := r.labels
	if len(labels) > 2 && strings.EqualFold(labels[0], "www") {
		labels = labels[1:]
	}
	return strings.ToLower(strings.Join(labels, "."))
}

func parseReference(token string) (*reference, error) {
	if i := strings.Index(token, "://"); i > 0 {
		return parseURL(token[:i], token[i+3:])
	}
	if at := strings.IndexByte(token, '@'); at >= 0 {
		return parseEmail(token, at)
	}
	return parseURL("", token)
}

func parseURL(scheme, rest string) (*reference, error) {
	host, tail := rest, ""
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		host, tail = rest[:i], rest[i:]
	}
	if strings.Contains(host, "@") {
		return nil, errUserInfo
	}

	ref := &reference{scheme: strings.ToLower(scheme)}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		if !digitsPattern.MatchString(host[i+1:]) {
			return nil, errBadPort
		}
		host, ref.port = host[:i], host[i+1:]
	}

	labels, err := splitHost(host)
	if err != nil {
		return nil, err
	}
	if scheme == "" && len(labels) < 2 {
		return nil, errBadHost
	}
	ref.labels = labels

	if strings.HasPrefix(tail, "/") {
		ref.hasPath = true
		path := tail
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
		for _, seg := range strings.Split(path, "/") {
			if seg != "" {
				ref.path = append(ref.path, seg)
			}
		}
	}
	return ref, nil
}

func parseEmail(token string, at int) (*reference, error) {
	local, domain := token[:at], token[at+1:]
	if local == "" || strings.ContainsAny(domain, "@/") {
		return nil, errBadEmail
	}
	labels, err := splitHost(domain)
	if err != nil || len(labels) < 2 {
		return nil, errBadEmail
	}
	if !alphaPattern.MatchString(labels[len(labels)-1]) {
		return nil, errBadEmail
	}
	return &reference{local: local, labels: labels}, nil
}

func splitHost(host string) ([]string, error) {
	if host == "" {
		return nil, errBadHost
	}
	labels := strings.Split(host, ".")
	for _, l := range labels {
		if !labelPattern.MatchString(l) {
			return nil, errBadHost
		}
	}
	return labels, nil
}

// recognizer turns a parsed reference into a phrase, or declines it
type recognizer struct {
	kind  Kind
	match func(ref *reference) (string, bool)
}

func (n *Normalizer) knownHost(ref *reference) bool {
	return ref.scheme != "" || n.tlds[ref.tld()]
}

func (n *Normalizer) matchPlatform(ref *reference) (string, bool) {
	if ref.isEmail() || !ref.urlForm() {
		return "", false
	}
	host := ref.hostKey()
	for _, p := range n.platforms {
		ph := strings.ToLower(p.Host)
		if host == ph || strings.HasSuffix(host, "."+ph) {
			return joinPhrase(p.Name+" at "+speakHost(ref), speakPath(ref.path)), true
		}
	}
	return "", false
}

func (n *Normalizer) matchURL(ref *reference) (string, bool) {
	if ref.isEmail() || !ref.urlForm() || !n.knownHost(ref) {
		return "", false
	}
	return joinPhrase("website "+speakHost(ref), speakPath(ref.path)), true
}

func (n *Normalizer) matchEmail(ref *reference) (string, bool) {
	if !ref.isEmail() {
		return "", false
	}
	return speakText(ref.local) + " at " + strings.Join(ref.labels, " dot "), true
}

func (n *Normalizer) matchDomain(ref *reference) (string, bool) {
	if ref.isEmail() || ref.urlForm() || !n.tlds[ref.tld()] {
		return "", false
	}
	return speakHost(ref), true
}

func speakHost(ref *reference) string {
	s := strings.Join(ref.labels, " dot ")
	if ref.port != "" {
		s += " port " + ref.port
	}
	return s
}

func speakPath(segments []string) string {
	spoken := make([]string, 0, len(segments))
	for _, seg := range segments {
		if s := speakText(seg); s != "" {
			spoken = append(spoken, s)
		}
	}
	return strings.Join(spoken, " slash ")
}

var symbolReplacer = strings.NewReplacer(
	".", " dot ",
	"@", " at ",
	"_", " underscore ",
)

func speakText(s string) string {
	return strings.Join(strings.Fields(symbolReplacer.Replace(s)), " ")
}

func joinPhrase(head, tail string) string {
	if tail == "" {
		return head
	}
	return head + " " + tail
}
