package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// widgetScriptTemplate is the bootstrap loader shipped to host pages. It is
// the browser twin of internal/loader: cached paint from localStorage,
// config fetch with fallback, SSE updates with capped exponential backoff,
// idempotent mount, and the cross-frame message protocol. Configuration
// comes from data-chatbot-id / data-backend-url on the script tag, with the
// legacy window.ChatForgeConfig object as fallback.
const widgetScriptTemplate = `(function() {
  'use strict';

  var ROOT_ID = 'chatforge-widget-root';
  var CACHE_KEY = 'chatforge-widget-settings';
  var MAX_RETRIES = {{.MaxRetries}};
  var BACKEND = '{{.BackendBase}}';

  var script = document.currentScript;
  var chatbotId = script && script.getAttribute('data-chatbot-id');
  var backendUrl = (script && script.getAttribute('data-backend-url')) || BACKEND;
  var legacy = window.ChatForgeConfig || null;

  var state = {
    version: null,
    open: false,
    frameReady: false,
    badgeDismissed: false,
    retryCount: 0,
    source: null
  };

  function log(msg, err) {
    if (window.console && console.warn) { console.warn('[chatforge] ' + msg, err || ''); }
  }

  function readCache() {
    try {
      var raw = window.localStorage.getItem(CACHE_KEY);
      return raw ? JSON.parse(raw) : null;
    } catch (err) { log('cache read failed', err); return null; }
  }

  function writeCache(settings, version) {
    try {
      window.localStorage.setItem(CACHE_KEY, JSON.stringify({
        settings: settings, version: version, timestamp: Date.now()
      }));
    } catch (err) { log('cache write failed', err); }
  }

  var DEFAULTS = {
    position: 'bottom-right', primaryColor: '#4f46e5', accentColor: '#7c3aed',
    buttonSize: 'medium', theme: 'modern',
    greeting: 'Hi! How can I help you today?', title: 'Chat with us',
    subtitle: 'We typically reply in a few minutes', zIndex: 999999,
    showNotificationBadge: true, paddingX: 20, paddingY: 20,
    isActive: true, deployStatus: 'deployed', pausedMessage: ''
  };

  function pick(raw, snake, camel, fallback) {
    if (raw && raw[snake] !== undefined && raw[snake] !== '') { return raw[snake]; }
    if (raw && raw[camel] !== undefined && raw[camel] !== '') { return raw[camel]; }
    return fallback;
  }

  function normalize(raw) {
    raw = raw || {};
    return {
      position: pick(raw, 'widget_position', 'widgetPosition', raw.position || DEFAULTS.position),
      primaryColor: pick(raw, 'primary_color', 'primaryColor', DEFAULTS.primaryColor),
      accentColor: pick(raw, 'secondary_color', 'secondaryColor', DEFAULTS.accentColor),
      buttonSize: pick(raw, 'button_size', 'buttonSize', DEFAULTS.buttonSize),
      theme: pick(raw, 'widget_theme', 'widgetTheme', raw.theme || DEFAULTS.theme),
      greeting: pick(raw, 'greeting_message', 'greetingMessage', raw.greeting || DEFAULTS.greeting),
      title: pick(raw, 'widget_title', 'widgetTitle', raw.title || DEFAULTS.title),
      subtitle: pick(raw, 'widget_subtitle', 'widgetSubtitle', raw.subtitle || DEFAULTS.subtitle),
      zIndex: pick(raw, 'z_index', 'zIndex', DEFAULTS.zIndex),
      showNotificationBadge: pick(raw, 'show_notification_badge', 'showNotificationBadge', DEFAULTS.showNotificationBadge),
      paddingX: pick(raw, 'padding_x', 'paddingX', DEFAULTS.paddingX),
      paddingY: pick(raw, 'padding_y', 'paddingY', DEFAULTS.paddingY),
      isActive: pick(raw, 'is_active', 'isActive', DEFAULTS.isActive),
      deployStatus: pick(raw, 'deploy_status', 'deployStatus', DEFAULTS.deployStatus),
      pausedMessage: pick(raw, 'paused_message', 'pausedMessage', DEFAULTS.pausedMessage),
      chatbotId: pick(raw, 'chatbot_id', 'chatbotId', chatbotId || ''),
      logoUrl: pick(raw, 'logo_url', 'logoUrl', '')
    };
  }

  var SIZES = { small: [48, 20], medium: [60, 24], large: [72, 28] };
  var THEMES = {
    modern:  { radius: '50%', border: 'none', shadow: '0 4px 24px rgba(0,0,0,0.25)', badge: true, animate: true },
    minimal: { radius: '50%', border: 'none', shadow: '0 2px 8px rgba(0,0,0,0.15)', badge: false, animate: false },
    classic: { radius: '12px', border: '2px solid rgba(255,255,255,0.9)', shadow: '0 4px 16px rgba(0,0,0,0.2)', badge: true, animate: false }
  };

  function cornerCSS(cfg) {
    var x = cfg.paddingX + 'px', y = cfg.paddingY + 'px';
    switch (cfg.position) {
      case 'bottom-left': return 'bottom:' + y + ';left:' + x + ';';
      case 'top-right': return 'top:' + y + ';right:' + x + ';';
      case 'top-left': return 'top:' + y + ';left:' + x + ';';
      default: return 'bottom:' + y + ';right:' + x + ';';
    }
  }

  function embedUrl(cfg) {
    var params = new URLSearchParams({
      chatbotId: cfg.chatbotId, primaryColor: cfg.primaryColor,
      accentColor: cfg.accentColor, title: cfg.title, subtitle: cfg.subtitle,
      greeting: cfg.greeting, backendUrl: backendUrl
    });
    return backendUrl + '/embed?' + params.toString();
  }

  function render(cfg) {
    var previous = document.getElementById(ROOT_ID);
    if (previous) { previous.parentNode.removeChild(previous); }
    if (!cfg.isActive) { return; }

    var size = SIZES[cfg.buttonSize] || SIZES.medium;
    var theme = THEMES[cfg.theme] || THEMES.modern;
    var corner = cornerCSS(cfg);

    var root = document.createElement('div');
    root.id = ROOT_ID;

    var button = document.createElement('button');
    button.style.cssText = 'position:fixed;' + corner + 'z-index:' + cfg.zIndex +
      ';width:' + size[0] + 'px;height:' + size[0] + 'px;display:' + (state.open ? 'none' : 'flex') +
      ';align-items:center;justify-content:center;border-radius:' + theme.radius +
      ';border:' + theme.border + ';box-shadow:' + theme.shadow +
      ';background:linear-gradient(135deg,' + cfg.primaryColor + ',' + cfg.accentColor + ');cursor:pointer;';
    button.innerHTML = '<svg width="' + size[1] + '" height="' + size[1] +
      '" viewBox="0 0 24 24" fill="none" stroke="#fff" stroke-width="2">' +
      '<path d="M21 15a2 2 0 0 1-2 2H7l-4 4V5a2 2 0 0 1 2-2h14a2 2 0 0 1 2 2z"/></svg>';

    if (cfg.showNotificationBadge && theme.badge && !state.badgeDismissed) {
      var badge = document.createElement('span');
      badge.style.cssText = 'position:absolute;top:0;right:0;width:12px;height:12px;border-radius:50%;background:#ef4444;';
      button.appendChild(badge);
    }

    var frame = document.createElement('div');
    frame.style.cssText = 'position:fixed;' + corner + 'z-index:' + cfg.zIndex +
      ';width:380px;height:560px;display:' + (state.open ? 'block' : 'none') +
      ';border-radius:16px;overflow:hidden;background:#fff;box-shadow:' + theme.shadow + ';';

    var loading = document.createElement('div');
    loading.style.cssText = 'display:flex;align-items:center;justify-content:center;width:100%;height:100%;';
    loading.textContent = cfg.greeting;

    var iframe = document.createElement('iframe');
    iframe.src = embedUrl(cfg);
    iframe.title = cfg.title;
    iframe.style.cssText = 'width:100%;height:100%;border:none;display:none;';
    iframe.addEventListener('load', function() {
      window.setTimeout(markFrameReady, 500);
    });

    frame.appendChild(loading);
    frame.appendChild(iframe);
    root.appendChild(button);
    root.appendChild(frame);

    button.addEventListener('click', toggle);
    document.body.appendChild(root);

    state.elements = { button: button, frame: frame, loading: loading, iframe: iframe };
    if (state.frameReady) { swapLoading(); }
    window.setTimeout(markFrameReady, 5000);
  }

  function swapLoading() {
    if (!state.elements) { return; }
    state.elements.loading.style.display = 'none';
    state.elements.iframe.style.display = 'block';
  }

  function markFrameReady() {
    if (state.frameReady) { return; }
    state.frameReady = true;
    swapLoading();
  }

  function setOpen(open) {
    if (!state.elements || open === state.open) { return; }
    state.open = open;
    if (open) { state.badgeDismissed = true; }
    state.elements.button.style.display = open ? 'none' : 'flex';
    state.elements.frame.style.display = open ? 'block' : 'none';
    if (open && state.badgeDismissed) {
      var badge = state.elements.button.querySelector('span');
      if (badge) { badge.parentNode.removeChild(badge); }
    }
  }

  function toggle() { setOpen(!state.open); }

  function fetchConfig() {
    var url = chatbotId
      ? backendUrl + '/api/v1/chatbots/' + encodeURIComponent(chatbotId) + '/widget-config'
      : backendUrl + '/api/widget/';
    return window.fetch(url).then(function(resp) {
      if (!resp.ok) { throw new Error('status ' + resp.status); }
      return resp.json();
    }).then(function(body) {
      var raw = body.settings || body;
      var version = body.version || '';
      var cfg = normalize(legacy ? assign(legacy, raw) : raw);
      writeCache(cfg, version);
      return { config: cfg, version: version };
    }).catch(function(err) {
      log('config fetch failed, falling back', err);
      var cached = readCache();
      if (cached) { return { config: normalize(cached.settings), version: cached.version }; }
      return { config: normalize(legacy), version: '' };
    });
  }

  function assign(base, extra) {
    var out = {};
    var k;
    for (k in base) { out[k] = base[k]; }
    for (k in extra) { out[k] = extra[k]; }
    return out;
  }

  function applyFetch(result) {
    if (state.version !== null && result.version === state.version) { return; }
    state.version = result.version;
    render(result.config);
  }

  function connectEvents() {
    if (!window.EventSource) { return; }
    if (state.source) { state.source.close(); }

    var url = backendUrl + '/api/widget/events' +
      (chatbotId ? '?chatbotId=' + encodeURIComponent(chatbotId) : '');
    var source = new EventSource(url);
    state.source = source;

    source.addEventListener('connected', function() { state.retryCount = 0; });
    source.addEventListener('ping', function() {});
    source.addEventListener('settings_updated', function(ev) {
      var payload;
      try { payload = JSON.parse(ev.data); } catch (err) { return; }
      if (payload.version === state.version) { return; }
      fetchConfig().then(applyFetch);
    });
    source.onerror = function() {
      source.close();
      state.source = null;
      if (state.retryCount >= MAX_RETRIES) {
        log('update channel dormant after ' + state.retryCount + ' retries');
        return;
      }
      var delay = Math.min(1000 * Math.pow(2, state.retryCount), 30000);
      state.retryCount++;
      window.setTimeout(connectEvents, delay);
    };
  }

  window.addEventListener('message', function(ev) {
    var data = ev.data;
    if (data === 'closeChat' || (data && data.type === 'closeChat')) {
      setOpen(false);
      return;
    }
    if (data && data.type === 'chatforge-widget-loaded') { markFrameReady(); }
  });

  window.addEventListener('beforeunload', function() {
    if (state.source) { state.source.close(); }
  });

  function start() {
    var cached = readCache();
    if (cached) {
      state.version = cached.version;
      render(normalize(cached.settings));
    }
    fetchConfig().then(function(result) {
      applyFetch(result);
      connectEvents();
    });
  }

  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', start);
  } else {
    start();
  }
})();
`

type widgetScriptData struct {
	BackendBase string
	MaxRetries  int
}

// WidgetScript serves the bootstrap loader with the backend origin baked in.
func (h *EmbedHandlers) WidgetScript(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.scriptTmpl.Execute(&buf, widgetScriptData{BackendBase: h.backendBase, MaxRetries: 5}); err != nil {
		h.logger.Error("render widget script failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "render failed")
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "application/javascript", buf.Bytes())
}
