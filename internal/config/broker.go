package config

type BrokerConfig struct {
	AMQPURL  string     `yaml:"amqp_url"`
	Exchange string     `yaml:"exchange"`
	SNS      *SNSConfig `yaml:"sns"`
}

type SNSConfig struct {
	Region          string `yaml:"region"`
	TopicARN        string `yaml:"topic_arn"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

func loadBrokerConfig() *BrokerConfig {
	return &BrokerConfig{
		AMQPURL:  getEnv("AMQP_URL", ""),
		Exchange: getEnv("AMQP_EXCHANGE", "car_rental.events"),
		SNS: &SNSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			TopicARN:        getEnv("SNS_BOOKING_TOPIC_ARN", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
	}
}
