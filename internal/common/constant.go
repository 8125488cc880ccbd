package common

// CSRFHeaderName is the HTTP header used to carry the anti-forgery token on
// outbound state-changing requests.
const CSRFHeaderName = "X-CSRF-Token"
