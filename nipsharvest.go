// Package nipsharvest collects papers and authors from the NeurIPS proceedings
// website, for all years from 1987 on.
package nipsharvest

const (
	AppName = "nipsharvest"
	Version = "0.1.0"

	// DefaultLegacyBaseURL hosts the per year index pages and, up to 2019, the
	// JSON metadata documents.
	DefaultLegacyBaseURL = "https://papers.neurips.cc/paper"
	// DefaultModernBaseURL hosts the HTML abstract pages from 2020 on.
	DefaultModernBaseURL = "https://proceedings.neurips.cc/paper_files/paper"
	// DefaultUserAgent is sent with every request; the site rejects some
	// default client identities.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/86.0.4240.183 Safari/537.36"
)
