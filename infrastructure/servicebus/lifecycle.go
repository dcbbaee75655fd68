package servicebus

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"creator-hub/infrastructure/logger"
)

type ILifecycleBus interface {
	SendLifecycleMessage(ctx context.Context, message []byte) error
}

// LifecycleBus mirrors lifecycle events onto an Azure Service Bus queue for
// deployments that run their downstream consumers on Azure.
type LifecycleBus struct {
	AzservicebusClient *azservicebus.Client
	Queue              string
}

func NewLifecycleBus(azServiceBusClient *azservicebus.Client, queue string) ILifecycleBus {
	return &LifecycleBus{AzservicebusClient: azServiceBusClient, Queue: queue}
}

func (b *LifecycleBus) SendLifecycleMessage(ctx context.Context, message []byte) error {
	sender, err := b.AzservicebusClient.NewSender(b.Queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		err := sender.Close(ctx)
		if err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, ctx)

	sbMessage := &azservicebus.Message{
		Body: message,
	}
	if err := sender.SendMessage(ctx, sbMessage, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
