package services

import "errors"

var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrNotEligible         = errors.New("user is not eligible to create a group")
	ErrInvalidInviteCode   = errors.New("invalid invite code")
	ErrGroupFull           = errors.New("group has reached its maximum number of members")
	ErrGroupInactive       = errors.New("group is not accepting members")
	ErrAlreadyMember       = errors.New("user is already a member of this group")
	ErrNotMember           = errors.New("user is not a member of this group")
	ErrNotSponsor          = errors.New("only the group sponsor can do this")
	ErrSponsorCannotLeave  = errors.New("the sponsor must transfer ownership or delete the group first")
	ErrCannotRemoveSponsor = errors.New("the sponsor cannot be removed")
	ErrSameSponsor         = errors.New("new sponsor must be a different member")
	ErrInviteCodeExhausted = errors.New("could not allocate a unique invite code")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnknownNotification = errors.New("unknown notification type")
	ErrNotificationMissing = errors.New("notification not found")
	ErrInvitationMissing   = errors.New("invitation not found")
	ErrInvitationClosed    = errors.New("invitation is no longer pending")
)
