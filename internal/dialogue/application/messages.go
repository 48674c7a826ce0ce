package application

// Customer-facing reply templates. Each subflow has a literal fallback so an
// external-service failure never surfaces as a crash or silence.
const (
	msgWelcome          = "¡Hola%s! Bienvenido a %s. ¿Qué te gustaría ordenar hoy?"
	msgAskName          = "¡Hola! Para atenderte mejor, ¿me compartes tu nombre?"
	msgRegistered       = "¡Gracias, %s! ¿Qué te gustaría ordenar?"
	msgAskOrder         = "¿Qué te gustaría ordenar? Escríbeme los productos y cantidades."
	msgClarifyOrder     = "No logré identificar todos los productos. ¿Me lo repites con los nombres del menú?"
	msgOrderSummary     = "Tu pedido %s:\n%s\nSubtotal: %s\n¿Confirmas tu pedido?"
	msgOrderUpdated     = "Listo, tu pedido %s quedó así:\n%s\nSubtotal: %s\n¿Confirmas?"
	msgNoOpenOrder      = "No encontré un pedido abierto a tu nombre. ¿Quieres empezar uno nuevo?"
	msgOrderConfirmed   = "¡Pedido %s confirmado! ¿Lo recoges en tienda o prefieres entrega a domicilio?"
	msgAskAddress       = "Perfecto. ¿A qué dirección te lo enviamos?"
	msgAskMethod        = "¿Recoges tu pedido en tienda o prefieres entrega a domicilio?"
	msgAddressFailed    = "No pude ubicar esa dirección. ¿Me la escribes de nuevo, con colonia y número?"
	msgDeliveryQuoted   = "Tu pedido llega a %s en aprox. %d min. Envío: %s. Total: %s. ¿Cómo deseas pagar? (efectivo, tarjeta o link de pago)"
	msgListSites        = "¿En cuál sucursal lo recoges?\n%s"
	msgSiteUnknown      = "No reconocí esa sucursal. Estas son nuestras opciones:\n%s"
	msgAskPickupTime    = "Perfecto, lo recoges en %s. ¿A qué hora pasas por él?"
	msgPickupScheduled  = "Listo, tu pedido %s estará esperándote. ¿Cómo deseas pagar? (efectivo, tarjeta o link de pago)"
	msgPaymentCash      = "Perfecto, pagas %s en efectivo al recibir. ¡Gracias por tu pedido %s!"
	msgPaymentCard      = "Perfecto, pagas %s con tarjeta al recibir. ¡Gracias por tu pedido %s!"
	msgPaymentLink      = "Aquí está tu link de pago por %s:\n%s\nAvísame en cuanto realices el pago."
	msgPaymentUnknown   = "No reconocí esa forma de pago. Un compañero te contactará para ayudarte."
	msgPaymentApproved  = "¡Pago recibido! Tu pedido %s está en preparación. Gracias."
	msgPaymentPending   = "Aún no veo reflejado el pago. Dame unos minutos y avísame de nuevo."
	msgPaymentRejected  = "El pago fue rechazado. ¿Quieres intentar con otro método?"
	msgPaymentNoLink    = "No encontré un pago pendiente. ¿Ya realizaste tu pedido?"
	msgMenuCaption      = "Aquí tienes nuestro menú. ¿Qué te gustaría ordenar?"
	msgPromotions       = "Promociones de hoy:\n%s\n¿Te interesa alguna?"
	msgHours            = "Nuestro horario es: %s"
	msgComplaintMinor   = "Lamentamos la molestia. Tomamos nota para mejorar. ¿Puedo ayudarte en algo más?"
	msgComplaintMajor   = "Lamentamos mucho lo ocurrido. Un encargado te contactará en breve."
	msgThanks           = "¡Con gusto! ¿Algo más en lo que pueda ayudarte?"
	msgFarewell         = "¡Gracias por tu visita! Que tengas excelente día."
	msgDidNotUnderstand = "Disculpa, no te entendí. ¿Me lo repites?"
	msgGenericFailure   = "Tuvimos un problema procesando tu mensaje. Inténtalo de nuevo en unos minutos."
)
