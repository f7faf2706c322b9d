// Package httpreq implements the "http" node, which performs one HTTP request
// per execution and emits the decoded response body. The URL and body may use
// the {{input}} placeholder; HTML responses can be converted to Markdown.
package httpreq
