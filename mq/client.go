package mq

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"git.fiblab.net/sim/tldetector/utils/config"
)

// 连接参数
const (
	connectTimeout       = 10 * time.Second
	connectRetryInterval = 5 * time.Second
	maxReconnectInterval = 60 * time.Second
	keepAlive            = 60 * time.Second
	pingTimeout          = 10 * time.Second
	disconnectQuiesceMs  = 250
)

// subscription 一条已登记的订阅
type subscription struct {
	topic   string
	handler mqtt.MessageHandler
}

// Client MQTT客户端封装
// 功能：管理到broker的连接与订阅，断线重连后自动恢复全部订阅
// 说明：所有输入输出数据流都经过本客户端，QoS一律为0
type Client struct {
	c      mqtt.Client
	topics config.MqTopics

	mu        sync.RWMutex
	connected bool
	subs      []subscription
}

// New 创建MQTT客户端
// 参数：c-连接配置，clientID-客户端标识（配置中指定时以配置为准）
// 返回：未连接的客户端实例，需调用Connect建立连接
func New(c config.Mq, clientID string) *Client {
	cli := &Client{topics: c.Topics}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.Broker)
	if c.ClientID != "" {
		clientID = c.ClientID
	}
	opts.SetClientID(clientID)
	if c.Username != "" {
		opts.SetUsername(c.Username)
		opts.SetPassword(c.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(connectRetryInterval)
	opts.SetMaxReconnectInterval(maxReconnectInterval)
	opts.SetKeepAlive(keepAlive)
	opts.SetPingTimeout(pingTimeout)
	opts.SetCleanSession(false)
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(cli.onConnect)
	opts.SetConnectionLostHandler(cli.onConnectionLost)
	opts.SetReconnectingHandler(cli.onReconnecting)

	cli.c = mqtt.NewClient(opts)
	return cli
}

// NewWithClient 用给定的底层客户端创建封装
// 说明：测试入口，视为已连接，订阅立即生效
func NewWithClient(c mqtt.Client, topics config.MqTopics) *Client {
	return &Client{c: c, topics: topics, connected: true}
}

// Connect 建立连接并等待成功
// 说明：底层开启了连接重试，失败时在超时前持续重试
func (cli *Client) Connect() error {
	token := cli.c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("connect to broker timeout after %v", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	return nil
}

// Subscribe 登记并订阅一个主题
// 说明：订阅被记录下来，重连后自动恢复；尚未连接时只登记
func (cli *Client) Subscribe(topic string, handler mqtt.MessageHandler) {
	cli.mu.Lock()
	cli.subs = append(cli.subs, subscription{topic: topic, handler: handler})
	connected := cli.connected
	cli.mu.Unlock()
	if connected {
		cli.subscribe(topic, handler)
	}
}

func (cli *Client) subscribe(topic string, handler mqtt.MessageHandler) {
	token := cli.c.Subscribe(topic, 0, handler)
	if token.WaitTimeout(connectTimeout) && token.Error() != nil {
		log.Errorf("subscribe %s: %v", topic, token.Error())
	} else {
		log.Debugf("subscribed to %s", topic)
	}
}

// onConnect 连接建立后恢复全部订阅
func (cli *Client) onConnect(mqtt.Client) {
	cli.mu.Lock()
	cli.connected = true
	subs := make([]subscription, len(cli.subs))
	copy(subs, cli.subs)
	cli.mu.Unlock()
	log.Infof("connected to broker, restoring %d subscriptions", len(subs))
	for _, s := range subs {
		cli.subscribe(s.topic, s.handler)
	}
}

func (cli *Client) onConnectionLost(_ mqtt.Client, err error) {
	cli.mu.Lock()
	cli.connected = false
	cli.mu.Unlock()
	log.Warnf("connection lost (%v), auto reconnect in progress", err)
}

func (cli *Client) onReconnecting(mqtt.Client, *mqtt.ClientOptions) {
	log.Debugf("reconnecting to broker")
}

// IsConnected 当前是否已连接
func (cli *Client) IsConnected() bool {
	cli.mu.RLock()
	defer cli.mu.RUnlock()
	return cli.connected
}

// Close 断开连接
func (cli *Client) Close() {
	if cli.c != nil && cli.c.IsConnected() {
		cli.c.Disconnect(disconnectQuiesceMs)
	}
	cli.mu.Lock()
	cli.connected = false
	cli.mu.Unlock()
}

// publish 发布一条消息并等待本地完成
func (cli *Client) publish(topic string, retained bool, payload any) error {
	token := cli.c.Publish(topic, 0, retained, payload)
	token.Wait()
	return token.Error()
}
