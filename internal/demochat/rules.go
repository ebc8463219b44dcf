package demochat

import "strings"

// Rule maps a set of keywords to a canned reply.
type Rule struct {
	Name     string
	Keywords []string
	Response string
}

// Rules is scanned in order; the first rule with a keyword contained in the
// lowercased message wins.
var Rules = []Rule{
	{
		Name:     "greeting",
		Keywords: []string{"hola", "hi", "hello", "buenos días", "buenas tardes"},
		Response: "¡Hola! 👋 Soy el asistente de Chispart AI. Estoy aquí para mostrarte cómo nuestra plataforma puede revolucionar tu negocio. ¿Qué te gustaría saber?",
	},
	{
		Name:     "pricing",
		Keywords: []string{"precio", "costo", "cuanto cuesta", "planes", "tarifas"},
		Response: "Tenemos 3 planes flexibles: 💎 Starter ($49/mes), Professional ($149/mes) y Enterprise ($499/mes). Cada uno diseñado para diferentes necesidades. ¿Te gustaría conocer más detalles de alguno?",
	},
	{
		Name:     "features",
		Keywords: []string{"características", "funciones", "que hace", "capacidades"},
		Response: "Chispart AI ofrece: 🤖 Agentes inteligentes colaborativos, ⚡ Automatización de procesos, 📊 Análisis avanzado con IA, 🔒 Seguridad empresarial, 🌐 Integraciones fáciles, y 📈 Escalabilidad ilimitada. ¿Qué característica te interesa más?",
	},
	{
		Name:     "automation",
		Keywords: []string{"automatización", "automatizar", "procesos"},
		Response: "Nuestra automatización es increíble! 🚀 Puedes automatizar tareas repetitivas, flujos de trabajo complejos, análisis de datos, generación de reportes y mucho más. Los clientes ahorran hasta 20 horas semanales. ¿Qué procesos te gustaría automatizar?",
	},
	{
		Name:     "security",
		Keywords: []string{"seguridad", "protección", "datos", "privacidad"},
		Response: "🔒 La seguridad es nuestra prioridad. Ofrecemos: encriptación end-to-end, cumplimiento GDPR y SOC2, backups automáticos, autenticación multifactor y auditorías de seguridad. Tus datos están 100% protegidos.",
	},
	{
		Name:     "integrations",
		Keywords: []string{"integración", "integrar", "conectar", "api"},
		Response: "🌐 Nos integramos con todo! Slack, Microsoft Teams, Google Workspace, Salesforce, HubSpot, Zapier y más. También ofrecemos API REST completa y webhooks. ¿Con qué herramientas necesitas integrarte?",
	},
	{
		Name:     "onboarding",
		Keywords: []string{"empezar", "comenzar", "registrar", "prueba", "demo"},
		Response: "¡Excelente! 🎉 Para empezar: 1) Elige tu plan ideal, 2) Completa el registro rápido, 3) Configura tu primer agente en minutos. Ofrecemos onboarding personalizado y soporte 24/7. ¿Listo para transformar tu negocio?",
	},
	{
		Name:     "support",
		Keywords: []string{"soporte", "ayuda", "asistencia", "support"},
		Response: "💬 Nuestro soporte es excepcional: Email 24/7 en todos los planes, Chat prioritario en Professional y Enterprise, y Account Manager dedicado en Enterprise. Tiempo de respuesta promedio: 2 horas. ¡Siempre estamos aquí para ti!",
	},
	{
		Name:     "cases",
		Keywords: []string{"casos", "ejemplos", "clientes", "testimonios"},
		Response: "🌟 Nuestros clientes han logrado resultados increíbles: 40% reducción en costos operativos, 3x aumento en productividad, 95% satisfacción del cliente. Empresas de tecnología, finanzas, retail y salud confían en nosotros.",
	},
	{
		Name:     "differentiators",
		Keywords: []string{"diferencia", "competencia", "mejor", "por qué"},
		Response: "✨ Lo que nos hace únicos: Agentes multiagente colaborativos (no solo chatbots), IA de última generación, interfaz intuitiva, personalización total, y el mejor soporte del mercado. Pruébanos y verás la diferencia!",
	},
}

// Fallback answers messages no rule matches.
const Fallback = "¡Interesante pregunta! 🤔 Chispart AI puede ayudarte con eso y mucho más. Nuestros agentes inteligentes aprenden de tu negocio para ofrecer soluciones personalizadas. ¿Te gustaría agendar una demo personalizada con nuestro equipo?"

// Greeting is the bot message already rendered in the chat markup.
const Greeting = "¡Hola! Soy tu asistente de ventas inteligente..."

// FallbackRule names the fallback in metrics and logs.
const FallbackRule = "fallback"

// MatchRule returns the first rule matching message.
func MatchRule(message string) (Rule, bool) {
	lower := strings.ToLower(message)
	for _, r := range Rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// Match returns the reply for message.
func Match(message string) string {
	if r, ok := MatchRule(message); ok {
		return r.Response
	}
	return Fallback
}
