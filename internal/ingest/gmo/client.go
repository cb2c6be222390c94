package gmo

import (
	"context"

	"main/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"
)

const _gmoPublicBaseWsUrl = "wss://api.coin.z.com/ws/public/v1"

// Pub is the GMO public-channel websocket client.
type Pub struct {
	wss *ws.WebSocket
}

// NewPub dials the public endpoint. An empty wsURL uses the production one.
func NewPub(ctx context.Context, wsURL string) *Pub {
	if wsURL == "" {
		wsURL = _gmoPublicBaseWsUrl
	}

	return &Pub{
		wss: ws.New(ctx, wsURL),
	}
}

func (repo *Pub) Len() int {
	return repo.wss.Len()
}

func (repo *Pub) Close() {
	repo.wss.Close()
}

func (repo *Pub) StartWebsocket(ctx context.Context) error {
	if err := repo.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	return nil
}

type subscribeRequest struct {
	Command string `json:"command"`
	Channel string `json:"channel"`
	Symbol  string `json:"symbol"`
}

// SubscribeOrderbooks subscribes the 'orderbooks' channel. GMO acknowledges
// only failures, as an async error message on the stream.
func (repo *Pub) SubscribeOrderbooks(symbol string) error {
	return repo.subscribe(ChannelOrderbooks, symbol)
}

// SubscribeTrades subscribes the 'trades' channel.
func (repo *Pub) SubscribeTrades(symbol string) error {
	return repo.subscribe(ChannelTrades, symbol)
}

func (repo *Pub) subscribe(channel, symbol string) error {
	payload := subscribeRequest{
		Command: "subscribe",
		Channel: channel,
		Symbol:  symbol,
	}

	if err := repo.wss.WriteJSON(payload); err != nil {
		return errors.Wrap(err, "write subscribe payload").With("channel", channel)
	}

	return nil
}

// Listen dispatches stream messages until the context ends or the connection
// closes. A closed connection returns ErrFeedClosed, which the pipeline
// treats as terminal.
func (repo *Pub) Listen(ctx context.Context, onOrderbooks func(Orderbooks), onTrade func(Trade)) error {
	ch, cancel := repo.wss.Subscribe()
	defer cancel()

	for {
		select {
		case <-sys.Shutdown():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return errors.Wrap(exception.ErrFeedClosed, "public websocket")
			}

			repo.dispatch(m, onOrderbooks, onTrade)
		}
	}
}

func (repo *Pub) dispatch(m ws.Message, onOrderbooks func(Orderbooks), onTrade func(Trade)) {
	envelope, ok := ws.ReadMessage[Envelope](m)
	if !ok {
		return
	}

	if envelope.Error != "" {
		logs.Errorf("error response from public websocket: %s", envelope.Error)
		return
	}

	switch envelope.Channel {
	case ChannelOrderbooks:
		var payload Orderbooks
		if err := m.Unmarshal(&payload); err != nil {
			logs.Errorf("unmarshal orderbooks, err: %+v", err)
			return
		}
		onOrderbooks(payload)

	case ChannelTrades:
		var payload Trade
		if err := m.Unmarshal(&payload); err != nil {
			logs.Errorf("unmarshal trade, err: %+v", err)
			return
		}
		onTrade(payload)
	}
}
