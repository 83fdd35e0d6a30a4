package domain

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("project not found")
	ErrUnauthorized    = errors.New("caller is not the project creator")
	ErrAlreadyFunded   = errors.New("project already fully funded")
	ErrOverflow        = errors.New("contribution exceeds funding target")
	ErrInsufficientFee = errors.New("insufficient fee asset balance")
	ErrTransferFailed  = errors.New("asset transfer failed")
	ErrTerminalState   = errors.New("milestone is in a terminal state")
	ErrOutOfOrder      = errors.New("milestones must be released in index order")
	ErrRequestPending  = errors.New("verification request already outstanding")
	ErrUnknownRequest  = errors.New("unknown oracle request")
	ErrAlreadyResolved = errors.New("oracle request already resolved")
	ErrTimeout         = errors.New("oracle request timed out")
)
