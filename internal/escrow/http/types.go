package http

import (
	"github.com/greendefi-labs/escrow-backend/internal/escrow/service"
	"github.com/greendefi-labs/escrow-backend/internal/pricefeed"
)

// Handler bundles the dependencies for the escrow HTTP endpoints.
type Handler struct {
	svc            *service.EscrowService
	prices         *pricefeed.Client
	callbackSecret string
}

func New(svc *service.EscrowService, prices *pricefeed.Client, callbackSecret string) *Handler {
	return &Handler{
		svc:            svc,
		prices:         prices,
		callbackSecret: callbackSecret,
	}
}

type createProjectReq struct {
	Name             string   `json:"name"`
	TargetAmount     string   `json:"target_amount"`
	MilestoneAmounts []string `json:"milestone_amounts"`
	MilestoneData    []string `json:"milestone_data"`
}

type contributeReq struct {
	Amount string `json:"amount"`
}

// projectResp is the fixed five-field read shape the client renders.
type projectResp struct {
	Name          string `json:"name"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
	Creator       string `json:"creator"`
	Funded        bool   `json:"funded"`
}

type oracleCallbackReq struct {
	RequestID  string `json:"request_id"`
	Success    *bool  `json:"success"`
	ResultData string `json:"result_data"`
}
