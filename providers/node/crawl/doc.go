// Package crawl implements the "crawl" node: a breadth-first crawl from a
// start URL that emits one record per visited page, optionally with the page
// content converted to Markdown.
package crawl
