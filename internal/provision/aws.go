package provision

import (
	"context"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/soyeahso/actiongroup/internal/logging"
)

// QueueAPI is the subset of the SQS client used here.
type QueueAPI interface {
	CreateQueue(ctx context.Context, in *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
}

// TopicAPI is the subset of the SNS client used here.
type TopicAPI interface {
	CreateTopic(ctx context.Context, in *sns.CreateTopicInput, optFns ...func(*sns.Options)) (*sns.CreateTopicOutput, error)
}

// ClientFactory builds regional service clients.
type ClientFactory interface {
	Queues(region string) QueueAPI
	Topics(region string) TopicAPI
}

// AWS provisions SQS queues and SNS topics. Regional clients are created on
// first use and reused.
type AWS struct {
	factory ClientFactory
	log     *logging.Logger

	mu     sync.Mutex
	queues map[string]QueueAPI
	topics map[string]TopicAPI
}

// NewAWS creates a provisioner backed by the given factory.
func NewAWS(factory ClientFactory, log *logging.Logger) *AWS {
	return &AWS{
		factory: factory,
		log:     log.Sub("provision"),
		queues:  make(map[string]QueueAPI),
		topics:  make(map[string]TopicAPI),
	}
}

// NewAWSFromConfig creates a provisioner whose clients derive from cfg.
// endpoint overrides the service endpoint (localstack); empty uses AWS.
func NewAWSFromConfig(cfg aws.Config, endpoint string, log *logging.Logger) *AWS {
	return NewAWS(&sdkFactory{cfg: cfg, endpoint: endpoint}, log)
}

// CreateQueue creates an SQS queue named name in region.
func (a *AWS) CreateQueue(ctx context.Context, region, name string, tags map[string]string) error {
	out, err := a.queueClient(region).CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(name),
		Tags:      tags,
	})
	if err != nil {
		return &Error{Kind: KindQueue, Region: region, Name: name, Err: err}
	}
	a.log.Debug().Str("region", region).Str("url", aws.ToString(out.QueueUrl)).Msg("queue created")
	return nil
}

// CreateTopic creates an SNS topic named name in region.
func (a *AWS) CreateTopic(ctx context.Context, region, name string, tags map[string]string) error {
	out, err := a.topicClient(region).CreateTopic(ctx, &sns.CreateTopicInput{
		Name: aws.String(name),
		Tags: topicTags(tags),
	})
	if err != nil {
		return &Error{Kind: KindTopic, Region: region, Name: name, Err: err}
	}
	a.log.Debug().Str("region", region).Str("arn", aws.ToString(out.TopicArn)).Msg("topic created")
	return nil
}

func (a *AWS) queueClient(region string) QueueAPI {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.queues[region]
	if !ok {
		c = a.factory.Queues(region)
		a.queues[region] = c
	}
	return c
}

func (a *AWS) topicClient(region string) TopicAPI {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.topics[region]
	if !ok {
		c = a.factory.Topics(region)
		a.topics[region] = c
	}
	return c
}

// topicTags converts a tag map to SNS tags, sorted by key for stable requests.
func topicTags(tags map[string]string) []snstypes.Tag {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]snstypes.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, snstypes.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

type sdkFactory struct {
	cfg      aws.Config
	endpoint string
}

func (f *sdkFactory) Queues(region string) QueueAPI {
	return sqs.NewFromConfig(f.cfg, func(o *sqs.Options) {
		o.Region = region
		if f.endpoint != "" {
			o.BaseEndpoint = aws.String(f.endpoint)
		}
	})
}

func (f *sdkFactory) Topics(region string) TopicAPI {
	return sns.NewFromConfig(f.cfg, func(o *sns.Options) {
		o.Region = region
		if f.endpoint != "" {
			o.BaseEndpoint = aws.String(f.endpoint)
		}
	})
}
