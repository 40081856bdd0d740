package request

// GuestAuthorizeRequest is the guest portal form body. The MAC arrives in
// headers, not the form.
type GuestAuthorizeRequest struct {
	Code      string `form:"code" binding:"required,min=1,max=128"`
	CSRFToken string `form:"csrf_token" binding:"required"`
	Continue  string `form:"continue"`
}
