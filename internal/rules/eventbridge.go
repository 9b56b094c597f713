package rules

import (
	"context"

	"github.com/MostProject/wslistener/internal/failure"
	"github.com/MostProject/wslistener/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

const serviceEventBridge = "eventbridge"

// EventBridgeAPI is the subset of the EventBridge client used by the toggle
type EventBridgeAPI interface {
	EnableRule(ctx context.Context, params *eventbridge.EnableRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.EnableRuleOutput, error)
	DisableRule(ctx context.Context, params *eventbridge.DisableRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DisableRuleOutput, error)
	DescribeRule(ctx context.Context, params *eventbridge.DescribeRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DescribeRuleOutput, error)
}

// EventBridgeRule toggles a single rule on a single event bus
type EventBridgeRule struct {
	client EventBridgeAPI
	ref    models.RuleRef
}

// NewEventBridgeRule creates a toggle for ref
func NewEventBridgeRule(client EventBridgeAPI, ref models.RuleRef) *EventBridgeRule {
	return &EventBridgeRule{client: client, ref: ref}
}

// Enable enables the rule. Enabling an enabled rule is a no-op.
func (r *EventBridgeRule) Enable(ctx context.Context) error {
	_, err := r.client.EnableRule(ctx, &eventbridge.EnableRuleInput{
		Name:         aws.String(r.ref.Name),
		EventBusName: aws.String(r.ref.EventBus),
	})
	return failure.Dependency(serviceEventBridge, "EnableRule", err)
}

// Disable disables the rule. Disabling a disabled rule is a no-op.
func (r *EventBridgeRule) Disable(ctx context.Context) error {
	_, err := r.client.DisableRule(ctx, &eventbridge.DisableRuleInput{
		Name:         aws.String(r.ref.Name),
		EventBusName: aws.String(r.ref.EventBus),
	})
	return failure.Dependency(serviceEventBridge, "DisableRule", err)
}

// State reads the current rule state
func (r *EventBridgeRule) State(ctx context.Context) (models.RuleState, error) {
	out, err := r.client.DescribeRule(ctx, &eventbridge.DescribeRuleInput{
		Name:         aws.String(r.ref.Name),
		EventBusName: aws.String(r.ref.EventBus),
	})
	if err != nil {
		return models.RuleDisabled, failure.Dependency(serviceEventBridge, "DescribeRule", err)
	}

	if out.State == types.RuleStateDisabled {
		return models.RuleDisabled, nil
	}
	// ENABLED and ENABLED_WITH_ALL_CLOUDTRAIL_MANAGEMENT_EVENTS both route events
	return models.RuleEnabled, nil
}
