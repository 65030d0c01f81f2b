// Package scenario defines browser test scenarios and loads them from YAML.
//
// A scenario is an ordered list of steps followed by terminal assertions:
//
//	name: login redirects to dashboard
//	settle: 3s
//	steps:
//	  - navigate: /login
//	  - fill: { selector: "input[type=email]" }
//	    value: ${DEMO_EMAIL}
//	  - fill: "input[type=password]"
//	    value: ${DEMO_PASSWORD}
//	  - click: "button[type=submit]"
//	    timeout: 5s
//	assertions:
//	  - url_contains: /panel-de-control
//	    timeout: 10s
//	    message: redirect did not occur
//
// Each step item carries exactly one kind key (navigate, click, fill,
// wait_for_load_state, pause, mock). Locators are either a selector string
// or a mapping with selector, nth and fallbacks. Durations accept Go
// duration strings or integer milliseconds. ${VAR} references in URLs,
// values and mock bodies are expanded at load time.
package scenario
